package state

import (
	"fmt"
	"slices"

	"github.com/dukerupert/choreweek/internal/model"
)

// Reduce applies a to s and returns the next state together with the
// events describing the change. It never mutates s and performs no I/O.
// On error the returned state is s unchanged.
func Reduce(s model.AppState, a Action) (model.AppState, []Event, error) {
	switch a := a.(type) {
	case LoadState:
		return loadState(s, a)
	case AddMember:
		return addMember(s, a)
	case EditMember:
		return editMember(s, a)
	case RemoveMember:
		return removeMember(s, a)
	case AddTask:
		return addTask(s, a)
	case EditTask:
		return editTask(s, a)
	case RemoveTask:
		return removeTask(s, a)
	case AddReward:
		return addReward(s, a)
	case EditReward:
		return editReward(s, a)
	case RemoveReward:
		return removeReward(s, a)
	case AddInfractionType:
		return addInfractionType(s, a)
	case EditInfractionType:
		return editInfractionType(s, a)
	case RemoveInfractionType:
		return removeInfractionType(s, a)
	case MarkTask:
		return markTask(s, a)
	case ClaimReward:
		return claimReward(s, a)
	case PenalizeMember:
		return penalizeMember(s, a)
	case CompensateInfraction:
		return compensateInfraction(s, a)
	case SetAdminMode:
		return setAdminMode(s, a)
	case ResetWeek:
		return resetWeek(s, a)
	case UpdateConfiguration:
		return updateConfiguration(s, a)
	}
	return s, nil, fmt.Errorf("reduce: unsupported action %T", a)
}

func loadState(s model.AppState, a LoadState) (model.AppState, []Event, error) {
	next := Clone(a.State)
	next.History = slices.Clone(a.History)
	if next.History == nil {
		next.History = []model.WeeklySnapshot{}
	}
	next.IsAdminMode = false
	return next, []Event{{Kind: EventStateLoaded, Entity: EntityState}}, nil
}

// Members

func addMember(s model.AppState, a AddMember) (model.AppState, []Event, error) {
	if memberIndex(s.Members, a.Member.ID) >= 0 {
		return s, nil, fmt.Errorf("add member %q: %w", a.Member.ID, ErrDuplicateID)
	}
	next := Clone(s)
	m := cloneMember(a.Member)
	m.Points = max(0, m.Points)
	next.Members = append(next.Members, m)
	return next, []Event{memberEvent(EventMemberAdded, m)}, nil
}

func editMember(s model.AppState, a EditMember) (model.AppState, []Event, error) {
	i := memberIndex(s.Members, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityMember, a.ID)
	}
	next := Clone(s)
	m := &next.Members[i]
	p := a.Patch
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Color != nil {
		m.Color = *p.Color
	}
	if p.Avatar != nil {
		m.Avatar = *p.Avatar
	}
	if p.Points != nil {
		m.Points = max(0, *p.Points)
	}
	return next, []Event{memberEvent(EventMemberUpdated, *m)}, nil
}

// removeMember strips the member from task assignments. Claim and
// infraction records keep the id.
func removeMember(s model.AppState, a RemoveMember) (model.AppState, []Event, error) {
	i := memberIndex(s.Members, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityMember, a.ID)
	}
	removed := s.Members[i]
	next := Clone(s)
	next.Members = slices.Delete(next.Members, i, i+1)
	for j := range next.Tasks {
		t := &next.Tasks[j]
		t.AssignedMemberIDs = slices.DeleteFunc(t.AssignedMemberIDs, func(id string) bool { return id == a.ID })
		t.CompletedToday = completedToday(*t)
	}
	return next, []Event{memberEvent(EventMemberRemoved, removed)}, nil
}

// Tasks

func addTask(s model.AppState, a AddTask) (model.AppState, []Event, error) {
	if taskIndex(s.Tasks, a.Task.ID) >= 0 {
		return s, nil, fmt.Errorf("add task %q: %w", a.Task.ID, ErrDuplicateID)
	}
	next := Clone(s)
	t := cloneTask(a.Task)
	t.CompletedToday = completedToday(t)
	next.Tasks = append(next.Tasks, t)
	return next, []Event{taskEvent(EventTaskAdded, t)}, nil
}

func editTask(s model.AppState, a EditTask) (model.AppState, []Event, error) {
	i := taskIndex(s.Tasks, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityTask, a.ID)
	}
	next := Clone(s)
	t := &next.Tasks[i]
	p := a.Patch
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Points != nil {
		t.Points = *p.Points
	}
	if p.Frequency != nil {
		t.Frequency = *p.Frequency
	}
	if p.AssignedMemberIDs != nil {
		t.AssignedMemberIDs = cloneIDs(*p.AssignedMemberIDs)
	}
	if p.IsCollaborative != nil {
		t.IsCollaborative = *p.IsCollaborative
	}
	t.CompletedToday = completedToday(*t)
	return next, []Event{taskEvent(EventTaskUpdated, *t)}, nil
}

func removeTask(s model.AppState, a RemoveTask) (model.AppState, []Event, error) {
	i := taskIndex(s.Tasks, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityTask, a.ID)
	}
	removed := s.Tasks[i]
	next := Clone(s)
	next.Tasks = slices.Delete(next.Tasks, i, i+1)
	return next, []Event{taskEvent(EventTaskRemoved, removed)}, nil
}

// Rewards

func addReward(s model.AppState, a AddReward) (model.AppState, []Event, error) {
	if rewardIndex(s.Rewards, a.Reward.ID) >= 0 {
		return s, nil, fmt.Errorf("add reward %q: %w", a.Reward.ID, ErrDuplicateID)
	}
	next := Clone(s)
	r := a.Reward
	r.Claims = slices.Clone(r.Claims)
	if r.Claims == nil {
		r.Claims = []model.ClaimRecord{}
	}
	next.Rewards = append(next.Rewards, r)
	return next, []Event{rewardEvent(EventRewardAdded, r)}, nil
}

func editReward(s model.AppState, a EditReward) (model.AppState, []Event, error) {
	i := rewardIndex(s.Rewards, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityReward, a.ID)
	}
	next := Clone(s)
	r := &next.Rewards[i]
	p := a.Patch
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Icon != nil {
		r.Icon = *p.Icon
	}
	if p.Threshold != nil {
		r.Threshold = *p.Threshold
	}
	if p.MaxClaimsPerWeek != nil {
		r.MaxClaimsPerWeek = *p.MaxClaimsPerWeek
	}
	if p.IsCooperative != nil {
		r.IsCooperative = *p.IsCooperative
	}
	return next, []Event{rewardEvent(EventRewardUpdated, *r)}, nil
}

func removeReward(s model.AppState, a RemoveReward) (model.AppState, []Event, error) {
	i := rewardIndex(s.Rewards, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityReward, a.ID)
	}
	removed := s.Rewards[i]
	next := Clone(s)
	next.Rewards = slices.Delete(next.Rewards, i, i+1)
	return next, []Event{rewardEvent(EventRewardRemoved, removed)}, nil
}

// Infraction types

func addInfractionType(s model.AppState, a AddInfractionType) (model.AppState, []Event, error) {
	if infractionTypeIndex(s.InfractionTypes, a.Type.ID) >= 0 {
		return s, nil, fmt.Errorf("add infraction type %q: %w", a.Type.ID, ErrDuplicateID)
	}
	next := Clone(s)
	next.InfractionTypes = append(next.InfractionTypes, a.Type)
	return next, []Event{{Kind: EventInfractionTypeAdded, Entity: EntityInfractionType, EntityID: a.Type.ID, Subject: a.Type.Label}}, nil
}

func editInfractionType(s model.AppState, a EditInfractionType) (model.AppState, []Event, error) {
	i := infractionTypeIndex(s.InfractionTypes, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityInfractionType, a.ID)
	}
	next := Clone(s)
	it := &next.InfractionTypes[i]
	p := a.Patch
	if p.Label != nil {
		it.Label = *p.Label
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.PointPenalty != nil {
		it.PointPenalty = *p.PointPenalty
	}
	if p.Compensable != nil {
		it.Compensable = *p.Compensable
	}
	return next, []Event{{Kind: EventInfractionTypeUpdated, Entity: EntityInfractionType, EntityID: it.ID, Subject: it.Label}}, nil
}

func removeInfractionType(s model.AppState, a RemoveInfractionType) (model.AppState, []Event, error) {
	i := infractionTypeIndex(s.InfractionTypes, a.ID)
	if i < 0 {
		return s, nil, stale(a, EntityInfractionType, a.ID)
	}
	removed := s.InfractionTypes[i]
	next := Clone(s)
	next.InfractionTypes = slices.Delete(next.InfractionTypes, i, i+1)
	return next, []Event{{Kind: EventInfractionTypeRemoved, Entity: EntityInfractionType, EntityID: removed.ID, Subject: removed.Label}}, nil
}

// Points

// markTask is idempotent: marking with the member's current completion
// value changes nothing.
func markTask(s model.AppState, a MarkTask) (model.AppState, []Event, error) {
	ti := taskIndex(s.Tasks, a.TaskID)
	if ti < 0 {
		return s, nil, stale(a, EntityTask, a.TaskID)
	}
	mi := memberIndex(s.Members, a.MemberID)
	if mi < 0 {
		return s, nil, stale(a, EntityMember, a.MemberID)
	}
	if s.Tasks[ti].CompletedBy[a.MemberID] == a.Completed {
		return s, nil, nil
	}

	next := Clone(s)
	t := &next.Tasks[ti]
	m := &next.Members[mi]
	wasDone := t.CompletedToday
	before := m.Points

	t.CompletedBy[a.MemberID] = a.Completed
	t.CompletedToday = completedToday(*t)

	kind := EventTaskCompleted
	if a.Completed {
		m.Points = addPoints(m.Points, t.Points)
		if !slices.Contains(m.CompletedTaskIDs, t.ID) {
			m.CompletedTaskIDs = append(m.CompletedTaskIDs, t.ID)
		}
	} else {
		kind = EventTaskUncompleted
		m.Points = addPoints(m.Points, -t.Points)
		m.CompletedTaskIDs = slices.DeleteFunc(m.CompletedTaskIDs, func(id string) bool { return id == t.ID })
	}

	events := []Event{{
		Kind:       kind,
		Entity:     EntityTask,
		EntityID:   t.ID,
		MemberID:   m.ID,
		MemberName: m.Name,
		Subject:    t.Name,
		Points:     m.Points - before,
	}}
	if t.CompletedToday && !wasDone {
		events = append(events, Event{
			Kind:       EventTaskFinished,
			Entity:     EntityTask,
			EntityID:   t.ID,
			MemberID:   m.ID,
			MemberName: m.Name,
			Subject:    t.Name,
			Shared:     t.IsCollaborative,
		})
	}
	return next, events, nil
}

// claimReward checks eligibility before deducting. Cooperative rewards
// drain the household pool in member order.
func claimReward(s model.AppState, a ClaimReward) (model.AppState, []Event, error) {
	ri := rewardIndex(s.Rewards, a.RewardID)
	if ri < 0 {
		return s, nil, stale(a, EntityReward, a.RewardID)
	}
	r := s.Rewards[ri]

	mi := memberIndex(s.Members, a.MemberID)
	if mi < 0 && !(r.IsCooperative && a.MemberID == model.FamilyClaimant) {
		return s, nil, stale(a, EntityMember, a.MemberID)
	}
	if err := Eligible(s, r, a.MemberID, a.At); err != nil {
		return s, nil, err
	}

	next := Clone(s)
	if r.IsCooperative {
		drainPool(next.Members, r.Threshold)
	} else {
		next.Members[mi].Points = addPoints(next.Members[mi].Points, -r.Threshold)
	}

	ev := Event{
		Kind:     EventRewardClaimed,
		Entity:   EntityReward,
		EntityID: r.ID,
		MemberID: a.MemberID,
		Subject:  r.Name,
		Points:   -r.Threshold,
		Shared:   r.IsCooperative,
	}
	if mi >= 0 {
		m := &next.Members[mi]
		m.ClaimedRewardIDs = append(m.ClaimedRewardIDs, r.ID)
		ev.MemberName = m.Name
	}
	next.Rewards[ri].Claims = append(next.Rewards[ri].Claims, model.ClaimRecord{
		MemberID: a.MemberID,
		At:       a.At,
		Week:     WeekLabel(a.At),
	})
	return next, []Event{ev}, nil
}

func penalizeMember(s model.AppState, a PenalizeMember) (model.AppState, []Event, error) {
	inf := a.Infraction
	ti := infractionTypeIndex(s.InfractionTypes, inf.TypeID)
	if ti < 0 {
		return s, nil, stale(a, EntityInfractionType, inf.TypeID)
	}
	mi := memberIndex(s.Members, inf.MemberID)
	if mi < 0 {
		return s, nil, stale(a, EntityMember, inf.MemberID)
	}
	it := s.InfractionTypes[ti]

	next := Clone(s)
	m := &next.Members[mi]
	before := m.Points
	m.Points = addPoints(m.Points, -it.PointPenalty)
	m.InfractionIDs = append(m.InfractionIDs, inf.ID)
	next.Infractions = append(next.Infractions, inf)

	return next, []Event{{
		Kind:       EventMemberPenalized,
		Entity:     EntityInfraction,
		EntityID:   inf.ID,
		MemberID:   m.ID,
		MemberName: m.Name,
		Subject:    it.Label,
		Points:     m.Points - before,
	}}, nil
}

// compensateInfraction marks a logged infraction as compensated and gives
// the penalty back to the member.
func compensateInfraction(s model.AppState, a CompensateInfraction) (model.AppState, []Event, error) {
	ii := infractionIndex(s.Infractions, a.InfractionID)
	if ii < 0 {
		return s, nil, stale(a, EntityInfraction, a.InfractionID)
	}
	inf := s.Infractions[ii]
	if inf.Compensated {
		return s, nil, nil
	}
	ti := infractionTypeIndex(s.InfractionTypes, inf.TypeID)
	if ti < 0 {
		return s, nil, stale(a, EntityInfractionType, inf.TypeID)
	}
	it := s.InfractionTypes[ti]
	if !it.Compensable {
		return s, nil, fmt.Errorf("compensate %q: %w", it.Label, ErrNotCompensable)
	}

	next := Clone(s)
	next.Infractions[ii].Compensated = true
	ev := Event{
		Kind:     EventInfractionCompensated,
		Entity:   EntityInfraction,
		EntityID: inf.ID,
		MemberID: inf.MemberID,
		Subject:  it.Label,
	}
	if mi := memberIndex(next.Members, inf.MemberID); mi >= 0 {
		m := &next.Members[mi]
		m.Points = addPoints(m.Points, it.PointPenalty)
		ev.MemberName = m.Name
		ev.Points = it.PointPenalty
	}
	return next, []Event{ev}, nil
}

// Lifecycle

func setAdminMode(s model.AppState, a SetAdminMode) (model.AppState, []Event, error) {
	if s.IsAdminMode == a.Enabled {
		return s, nil, nil
	}
	next := Clone(s)
	next.IsAdminMode = a.Enabled
	return next, []Event{{Kind: EventAdminModeChanged, Entity: EntitySession, Enabled: a.Enabled}}, nil
}

// resetWeek archives the snapshot and clears the week's transient state.
// Points and claimed rewards survive.
func resetWeek(s model.AppState, a ResetWeek) (model.AppState, []Event, error) {
	next := Clone(s)
	next.History = append(next.History, a.Snapshot)
	for i := range next.Tasks {
		next.Tasks[i].CompletedBy = map[string]bool{}
		next.Tasks[i].CompletedToday = false
	}
	for i := range next.Members {
		next.Members[i].CompletedTaskIDs = []string{}
		next.Members[i].InfractionIDs = []string{}
	}
	next.Infractions = []model.Infraction{}
	next.LastResetAt = a.At

	return next, []Event{{
		Kind:     EventWeekReset,
		Entity:   EntityWeek,
		EntityID: a.Snapshot.ID,
		Subject:  a.Snapshot.Week,
		Points:   a.Snapshot.Stats.TotalPoints,
		Manual:   a.Manual,
	}}, nil
}

func updateConfiguration(s model.AppState, a UpdateConfiguration) (model.AppState, []Event, error) {
	next := Clone(s)
	c := &next.Config
	p := a.Patch
	if p.PINHash != nil {
		c.PINHash = *p.PINHash
	}
	if p.SoundsEnabled != nil {
		c.SoundsEnabled = *p.SoundsEnabled
	}
	if p.KioskMode != nil {
		c.KioskMode = *p.KioskMode
	}
	if p.RemindersEnabled != nil {
		c.RemindersEnabled = *p.RemindersEnabled
	}
	if p.ResetDay != nil {
		c.ResetDay = *p.ResetDay
	}
	if p.ResetTime != nil {
		c.ResetTime = *p.ResetTime
	}
	if p.Theme != nil {
		c.Theme = *p.Theme
	}
	return next, []Event{{Kind: EventConfigUpdated, Entity: EntityConfig}}, nil
}

// helpers

// completedToday applies the collaborative rule: every assignee for
// collaborative tasks, anyone otherwise.
func completedToday(t model.Task) bool {
	if t.IsCollaborative {
		if len(t.AssignedMemberIDs) == 0 {
			return false
		}
		for _, id := range t.AssignedMemberIDs {
			if !t.CompletedBy[id] {
				return false
			}
		}
		return true
	}
	for _, done := range t.CompletedBy {
		if done {
			return true
		}
	}
	return false
}

// addPoints floors the result at zero.
func addPoints(points, delta int) int {
	return max(0, points+delta)
}

func drainPool(members []model.Member, amount int) {
	for i := range members {
		if amount <= 0 {
			return
		}
		take := min(members[i].Points, amount)
		members[i].Points -= take
		amount -= take
	}
}

func memberEvent(kind EventKind, m model.Member) Event {
	return Event{Kind: kind, Entity: EntityMember, EntityID: m.ID, MemberID: m.ID, MemberName: m.Name}
}

func taskEvent(kind EventKind, t model.Task) Event {
	return Event{Kind: kind, Entity: EntityTask, EntityID: t.ID, Subject: t.Name, Points: t.Points}
}

func rewardEvent(kind EventKind, r model.Reward) Event {
	return Event{Kind: kind, Entity: EntityReward, EntityID: r.ID, Subject: r.Name, Points: r.Threshold}
}

func memberIndex(members []model.Member, id string) int {
	return slices.IndexFunc(members, func(m model.Member) bool { return m.ID == id })
}

func taskIndex(tasks []model.Task, id string) int {
	return slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
}

func rewardIndex(rewards []model.Reward, id string) int {
	return slices.IndexFunc(rewards, func(r model.Reward) bool { return r.ID == id })
}

func infractionTypeIndex(types []model.InfractionType, id string) int {
	return slices.IndexFunc(types, func(t model.InfractionType) bool { return t.ID == id })
}

func infractionIndex(infractions []model.Infraction, id string) int {
	return slices.IndexFunc(infractions, func(i model.Infraction) bool { return i.ID == id })
}
