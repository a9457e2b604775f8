package state

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

var testNow = time.Date(2025, 2, 12, 18, 30, 0, 0, time.UTC) // Wednesday, ISO week 2025-07

func mustReduce(t *testing.T, s model.AppState, a Action) (model.AppState, []Event) {
	t.Helper()
	next, events, err := Reduce(s, a)
	if err != nil {
		t.Fatalf("reduce %s: %v", a.Name(), err)
	}
	return next, events
}

// household returns two members, a daily task worth 5, a collaborative
// task worth 10 assigned to both, and a 20 point reward.
func household(t *testing.T) model.AppState {
	t.Helper()
	s := NewState("hash", testNow.Add(-72*time.Hour))
	s, _ = mustReduce(t, s, AddMember{Member: model.Member{ID: "ana", Name: "Ana"}})
	s, _ = mustReduce(t, s, AddMember{Member: model.Member{ID: "leo", Name: "Leo"}})
	s, _ = mustReduce(t, s, AddTask{Task: model.Task{
		ID: "dishes", Name: "Dishes", Points: 5, Frequency: model.FrequencyDaily,
		AssignedMemberIDs: []string{"ana", "leo"},
	}})
	s, _ = mustReduce(t, s, AddTask{Task: model.Task{
		ID: "garage", Name: "Clean garage", Points: 10, Frequency: model.FrequencyWeekly,
		AssignedMemberIDs: []string{"ana", "leo"}, IsCollaborative: true,
	}})
	s, _ = mustReduce(t, s, AddReward{Reward: model.Reward{
		ID: "movie", Name: "Movie night", Threshold: 20, MaxClaimsPerWeek: 1,
	}})
	return s
}

func member(t *testing.T, s model.AppState, id string) model.Member {
	t.Helper()
	m, ok := FindMember(s, id)
	if !ok {
		t.Fatalf("member %q not found", id)
	}
	return m
}

func task(t *testing.T, s model.AppState, id string) model.Task {
	t.Helper()
	tk, ok := FindTask(s, id)
	if !ok {
		t.Fatalf("task %q not found", id)
	}
	return tk
}

func withPoints(t *testing.T, s model.AppState, id string, points int) model.AppState {
	t.Helper()
	next, _ := mustReduce(t, s, EditMember{ID: id, Patch: MemberPatch{Points: &points}})
	return next
}

func TestMarkTaskScenario(t *testing.T) {
	s := household(t)

	s, events := mustReduce(t, s, MarkTask{TaskID: "dishes", MemberID: "ana", Completed: true})
	if got := member(t, s, "ana").Points; got != 5 {
		t.Fatalf("points after complete = %d, want 5", got)
	}
	if len(events) != 2 || events[0].Kind != EventTaskCompleted || events[0].Points != 5 {
		t.Errorf("events = %+v, want task.completed +5 then task.finished", events)
	}
	if !task(t, s, "dishes").CompletedToday {
		t.Error("individual task should be completed after one assignee")
	}

	s, _ = mustReduce(t, s, MarkTask{TaskID: "dishes", MemberID: "ana", Completed: false})
	if got := member(t, s, "ana").Points; got != 0 {
		t.Fatalf("points after uncomplete = %d, want 0", got)
	}
	if task(t, s, "dishes").CompletedToday {
		t.Error("task should not be completed after uncomplete")
	}

	s, _ = mustReduce(t, s, MarkTask{TaskID: "dishes", MemberID: "ana", Completed: true})
	s, events = mustReduce(t, s, MarkTask{TaskID: "dishes", MemberID: "ana", Completed: true})
	if len(events) != 0 {
		t.Errorf("re-mark events = %d, want 0", len(events))
	}
	m := member(t, s, "ana")
	if m.Points != 5 {
		t.Errorf("points after re-mark = %d, want 5", m.Points)
	}
	if n := countOf(m.CompletedTaskIDs, "dishes"); n != 1 {
		t.Errorf("completed list contains dishes %d times, want 1", n)
	}
}

func TestMarkTaskInverse(t *testing.T) {
	s := withPoints(t, household(t), "leo", 17)

	s, _ = mustReduce(t, s, MarkTask{TaskID: "garage", MemberID: "leo", Completed: true})
	s, _ = mustReduce(t, s, MarkTask{TaskID: "garage", MemberID: "leo", Completed: false})

	m := member(t, s, "leo")
	if m.Points != 17 {
		t.Errorf("points = %d, want 17", m.Points)
	}
	if len(m.CompletedTaskIDs) != 0 {
		t.Errorf("completed tasks = %v, want empty", m.CompletedTaskIDs)
	}
}

func TestCollaborativeCompletion(t *testing.T) {
	s := household(t)

	s, events := mustReduce(t, s, MarkTask{TaskID: "garage", MemberID: "ana", Completed: true})
	if task(t, s, "garage").CompletedToday {
		t.Fatal("collaborative task completed after first assignee")
	}
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}

	s, events = mustReduce(t, s, MarkTask{TaskID: "garage", MemberID: "leo", Completed: true})
	if !task(t, s, "garage").CompletedToday {
		t.Fatal("collaborative task not completed after second assignee")
	}
	if len(events) != 2 || events[1].Kind != EventTaskFinished || !events[1].Shared {
		t.Errorf("events = %+v, want shared task.finished last", events)
	}

	s, _ = mustReduce(t, s, MarkTask{TaskID: "garage", MemberID: "ana", Completed: false})
	if task(t, s, "garage").CompletedToday {
		t.Error("collaborative task still completed after one assignee undid it")
	}
}

func TestMarkTaskStaleReference(t *testing.T) {
	s := household(t)

	tests := []struct {
		name   string
		action MarkTask
		entity string
	}{
		{"unknown task", MarkTask{TaskID: "nope", MemberID: "ana", Completed: true}, EntityTask},
		{"unknown member", MarkTask{TaskID: "dishes", MemberID: "nope", Completed: true}, EntityMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, events, err := Reduce(s, tt.action)
			if !errors.Is(err, ErrStaleReference) {
				t.Fatalf("err = %v, want ErrStaleReference", err)
			}
			var sre *StaleReferenceError
			if !errors.As(err, &sre) || sre.Entity != tt.entity {
				t.Errorf("stale entity = %+v, want %s", sre, tt.entity)
			}
			if events != nil {
				t.Errorf("events = %v, want nil", events)
			}
			if member(t, next, "ana").Points != member(t, s, "ana").Points {
				t.Error("state changed on stale reference")
			}
		})
	}
}

func TestClaimRewardScenario(t *testing.T) {
	s := withPoints(t, household(t), "ana", 25)

	s, events := mustReduce(t, s, ClaimReward{RewardID: "movie", MemberID: "ana", At: testNow})

	m := member(t, s, "ana")
	if m.Points != 5 {
		t.Errorf("points = %d, want 5", m.Points)
	}
	if !slices.Equal(m.ClaimedRewardIDs, []string{"movie"}) {
		t.Errorf("claimed = %v, want [movie]", m.ClaimedRewardIDs)
	}
	r, _ := FindReward(s, "movie")
	if len(r.Claims) != 1 {
		t.Fatalf("claims = %d, want 1", len(r.Claims))
	}
	if r.Claims[0].Week != "2025-07" || r.Claims[0].MemberID != "ana" {
		t.Errorf("claim = %+v, want ana in 2025-07", r.Claims[0])
	}
	if len(events) != 1 || events[0].Kind != EventRewardClaimed || events[0].Points != -20 {
		t.Errorf("events = %+v", events)
	}
}

func TestClaimRewardNotEligible(t *testing.T) {
	s := withPoints(t, household(t), "ana", 50)

	t.Run("insufficient points", func(t *testing.T) {
		_, _, err := Reduce(s, ClaimReward{RewardID: "movie", MemberID: "leo", At: testNow})
		var ie *IneligibleError
		if !errors.As(err, &ie) || ie.Reason != ReasonInsufficientPoints {
			t.Fatalf("err = %v, want insufficient points", err)
		}
		if !errors.Is(err, ErrNotEligible) {
			t.Error("error should match ErrNotEligible")
		}
	})

	t.Run("weekly limit", func(t *testing.T) {
		next, _ := mustReduce(t, s, ClaimReward{RewardID: "movie", MemberID: "ana", At: testNow})
		_, _, err := Reduce(next, ClaimReward{RewardID: "movie", MemberID: "ana", At: testNow.Add(time.Hour)})
		var ie *IneligibleError
		if !errors.As(err, &ie) || ie.Reason != ReasonWeeklyLimit {
			t.Fatalf("err = %v, want weekly limit", err)
		}

		// next ISO week is allowed again
		_, _, err = Reduce(next, ClaimReward{RewardID: "movie", MemberID: "ana", At: testNow.AddDate(0, 0, 7)})
		if err != nil {
			t.Errorf("claim next week: %v", err)
		}
	})
}

func TestClaimCooperativeReward(t *testing.T) {
	s := household(t)
	s = withPoints(t, s, "ana", 8)
	s = withPoints(t, s, "leo", 30)
	s, _ = mustReduce(t, s, AddReward{Reward: model.Reward{
		ID: "zoo", Name: "Zoo trip", Threshold: 30, MaxClaimsPerWeek: 1, IsCooperative: true,
	}})

	s, _ = mustReduce(t, s, ClaimReward{RewardID: "zoo", MemberID: model.FamilyClaimant, At: testNow})

	if got := member(t, s, "ana").Points; got != 0 {
		t.Errorf("ana points = %d, want 0", got)
	}
	if got := member(t, s, "leo").Points; got != 8 {
		t.Errorf("leo points = %d, want 8", got)
	}
	if TotalPoints(s) != 8 {
		t.Errorf("total = %d, want 8", TotalPoints(s))
	}

	_, _, err := Reduce(s, ClaimReward{RewardID: "zoo", MemberID: "leo", At: testNow})
	if !errors.Is(err, ErrNotEligible) {
		t.Errorf("second cooperative claim err = %v, want ErrNotEligible", err)
	}
}

func TestPenalizeMember(t *testing.T) {
	s := withPoints(t, household(t), "leo", 4)

	s, events := mustReduce(t, s, PenalizeMember{Infraction: model.Infraction{
		ID: "i1", TypeID: "1", MemberID: "leo", At: testNow,
	}})

	m := member(t, s, "leo")
	if m.Points != 0 {
		t.Errorf("points = %d, want 0 (floored)", m.Points)
	}
	if !slices.Equal(m.InfractionIDs, []string{"i1"}) {
		t.Errorf("infraction ids = %v", m.InfractionIDs)
	}
	if len(s.Infractions) != 1 {
		t.Errorf("log length = %d, want 1", len(s.Infractions))
	}
	if events[0].Points != -4 {
		t.Errorf("event points = %d, want -4", events[0].Points)
	}

	_, _, err := Reduce(s, PenalizeMember{Infraction: model.Infraction{ID: "i2", TypeID: "missing", MemberID: "leo"}})
	if !errors.Is(err, ErrStaleReference) {
		t.Errorf("unknown type err = %v, want ErrStaleReference", err)
	}
}

func TestCompensateInfraction(t *testing.T) {
	s := withPoints(t, household(t), "ana", 10)
	s, _ = mustReduce(t, s, PenalizeMember{Infraction: model.Infraction{ID: "i1", TypeID: "1", MemberID: "ana"}})
	s, _ = mustReduce(t, s, PenalizeMember{Infraction: model.Infraction{ID: "i2", TypeID: "3", MemberID: "ana"}})
	if got := member(t, s, "ana").Points; got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}

	s, _ = mustReduce(t, s, CompensateInfraction{InfractionID: "i1"})
	if got := member(t, s, "ana").Points; got != 5 {
		t.Errorf("points after compensation = %d, want 5", got)
	}
	if !s.Infractions[0].Compensated {
		t.Error("infraction not marked compensated")
	}

	_, events := mustReduce(t, s, CompensateInfraction{InfractionID: "i1"})
	if len(events) != 0 {
		t.Error("compensating twice should be a no-op")
	}

	_, _, err := Reduce(s, CompensateInfraction{InfractionID: "i2"})
	if !errors.Is(err, ErrNotCompensable) {
		t.Errorf("err = %v, want ErrNotCompensable", err)
	}
}

func TestPointsNeverNegative(t *testing.T) {
	s := household(t)
	actions := []Action{
		MarkTask{TaskID: "dishes", MemberID: "ana", Completed: false},
		MarkTask{TaskID: "dishes", MemberID: "leo", Completed: true},
		PenalizeMember{Infraction: model.Infraction{ID: "a", TypeID: "3", MemberID: "leo"}},
		MarkTask{TaskID: "garage", MemberID: "ana", Completed: true},
		PenalizeMember{Infraction: model.Infraction{ID: "b", TypeID: "3", MemberID: "ana"}},
		PenalizeMember{Infraction: model.Infraction{ID: "c", TypeID: "3", MemberID: "ana"}},
		MarkTask{TaskID: "dishes", MemberID: "leo", Completed: false},
		MarkTask{TaskID: "garage", MemberID: "ana", Completed: false},
		ClaimReward{RewardID: "movie", MemberID: "ana", At: testNow},
	}
	for _, a := range actions {
		next, _, err := Reduce(s, a)
		if err == nil {
			s = next
		}
		for _, m := range s.Members {
			if m.Points < 0 {
				t.Fatalf("after %s member %s has %d points", a.Name(), m.ID, m.Points)
			}
		}
	}
}

func TestResetWeekKeepsPoints(t *testing.T) {
	s := withPoints(t, household(t), "ana", 30)
	s, _ = mustReduce(t, s, MarkTask{TaskID: "dishes", MemberID: "leo", Completed: true})
	s, _ = mustReduce(t, s, ClaimReward{RewardID: "movie", MemberID: "ana", At: testNow})
	s, _ = mustReduce(t, s, PenalizeMember{Infraction: model.Infraction{ID: "i1", TypeID: "2", MemberID: "leo"}})

	before := map[string]int{}
	for _, m := range s.Members {
		before[m.ID] = m.Points
	}

	snap := BuildSnapshot(s, testNow)
	next, events := mustReduce(t, s, ResetWeek{Snapshot: snap, At: testNow, Manual: true})

	for _, m := range next.Members {
		if m.Points != before[m.ID] {
			t.Errorf("%s points = %d, want %d", m.ID, m.Points, before[m.ID])
		}
		if len(m.CompletedTaskIDs) != 0 || len(m.InfractionIDs) != 0 {
			t.Errorf("%s lists not cleared: %+v", m.ID, m)
		}
	}
	if got := member(t, next, "ana").ClaimedRewardIDs; len(got) != 1 {
		t.Errorf("claimed rewards = %v, want kept", got)
	}
	for _, tk := range next.Tasks {
		if tk.CompletedToday || len(tk.CompletedBy) != 0 {
			t.Errorf("task %s not cleared", tk.ID)
		}
	}
	if len(next.Infractions) != 0 {
		t.Errorf("infraction log = %d, want 0", len(next.Infractions))
	}
	if len(next.History) != 1 || next.History[0].ID != "2025-07" {
		t.Errorf("history = %+v", next.History)
	}
	if !next.LastResetAt.Equal(testNow) {
		t.Errorf("last reset = %v, want %v", next.LastResetAt, testNow)
	}
	if len(events) != 1 || !events[0].Manual {
		t.Errorf("events = %+v, want one manual week.reset", events)
	}

	again, _ := mustReduce(t, next, ResetWeek{Snapshot: BuildSnapshot(next, testNow), At: testNow})
	for _, m := range again.Members {
		if m.Points != before[m.ID] {
			t.Errorf("second reset changed %s points to %d", m.ID, m.Points)
		}
	}
}

func TestRemoveMemberKeepsHistory(t *testing.T) {
	s := withPoints(t, household(t), "leo", 40)
	s, _ = mustReduce(t, s, ClaimReward{RewardID: "movie", MemberID: "leo", At: testNow})
	s, _ = mustReduce(t, s, PenalizeMember{Infraction: model.Infraction{ID: "i1", TypeID: "2", MemberID: "leo"}})
	s, _ = mustReduce(t, s, MarkTask{TaskID: "garage", MemberID: "ana", Completed: true})

	s, _ = mustReduce(t, s, RemoveMember{ID: "leo"})

	if _, ok := FindMember(s, "leo"); ok {
		t.Fatal("member still present")
	}
	for _, tk := range s.Tasks {
		if slices.Contains(tk.AssignedMemberIDs, "leo") {
			t.Errorf("task %s still assigned to leo", tk.ID)
		}
	}
	r, _ := FindReward(s, "movie")
	if r.Claims[0].MemberID != "leo" {
		t.Errorf("claim member = %q, want leo", r.Claims[0].MemberID)
	}
	if s.Infractions[0].MemberID != "leo" {
		t.Errorf("infraction member = %q, want leo", s.Infractions[0].MemberID)
	}
	// ana is now the only assignee and has completed it
	if !task(t, s, "garage").CompletedToday {
		t.Error("collaborative task should be complete once remaining assignees are done")
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := household(t)
	_, _ = mustReduce(t, s, MarkTask{TaskID: "garage", MemberID: "ana", Completed: true})

	if len(member(t, s, "ana").CompletedTaskIDs) != 0 {
		t.Error("input member mutated")
	}
	if task(t, s, "garage").CompletedBy["ana"] {
		t.Error("input task completion map mutated")
	}
}

func TestUpdateConfigurationMerges(t *testing.T) {
	s := household(t)
	day := 3
	s, _ = mustReduce(t, s, UpdateConfiguration{Patch: ConfigPatch{ResetDay: &day}})

	if s.Config.ResetDay != 3 {
		t.Errorf("reset day = %d, want 3", s.Config.ResetDay)
	}
	if s.Config.ResetTime != DefaultResetTime || s.Config.PINHash != "hash" {
		t.Errorf("untouched fields changed: %+v", s.Config)
	}
}

func TestAddDuplicateID(t *testing.T) {
	s := household(t)
	_, _, err := Reduce(s, AddMember{Member: model.Member{ID: "ana", Name: "Other"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("err = %v, want ErrDuplicateID", err)
	}
}

func countOf(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
