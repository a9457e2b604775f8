package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/choreweek/internal/auth"
	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/scheduler"
	"github.com/dukerupert/choreweek/internal/state"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2025, 2, 12, 18, 30, 0, 0, time.UTC)

type fakeLive struct {
	saved   *model.AppState
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeLive) LoadState() (*model.AppState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.saved, nil
}

func (f *fakeLive) SaveState(st model.AppState) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := state.Clone(st)
	f.saved = &cp
	return nil
}

type fakeHistory struct {
	loaded []model.WeeklySnapshot
	puts   []model.WeeklySnapshot
	closed bool
}

func (f *fakeHistory) Put(snap model.WeeklySnapshot) bool {
	f.puts = append(f.puts, snap)
	return true
}

func (f *fakeHistory) LoadAll() ([]model.WeeklySnapshot, error) { return f.loaded, nil }
func (f *fakeHistory) Close()                                   { f.closed = true }

type countingRecorder struct {
	transitions int
	stale       int
	failures    map[string]int
}

func (r *countingRecorder) Transition(string)     { r.transitions++ }
func (r *countingRecorder) StaleReference(string) { r.stale++ }
func (r *countingRecorder) PersistenceFailure(target string) {
	if r.failures == nil {
		r.failures = map[string]int{}
	}
	r.failures[target]++
}

type recordingSubscriber struct {
	events []state.Event
}

func (s *recordingSubscriber) Notify(events []state.Event, _ model.Configuration) {
	s.events = append(s.events, events...)
}

func testHash(t *testing.T, pin string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

type harness struct {
	tr       *Tracker
	live     *fakeLive
	history  *fakeHistory
	recorder *countingRecorder
	sub      *recordingSubscriber
}

func newHarness(t *testing.T, opts ...func(*Deps)) *harness {
	t.Helper()
	h := &harness{
		live:     &fakeLive{},
		history:  &fakeHistory{},
		recorder: &countingRecorder{},
		sub:      &recordingSubscriber{},
	}
	seq := 0
	d := Deps{
		Live:           h.live,
		History:        h.history,
		Recorder:       h.recorder,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		DefaultPINHash: testHash(t, "1234"),
		Location:       time.UTC,
		Now:            func() time.Time { return testNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	h.tr = New(d)
	h.tr.Subscribe(h.sub)
	h.tr.Open()
	return h
}

func (h *harness) member(t *testing.T, name string) model.Member {
	t.Helper()
	m, err := h.tr.AddMember(MemberInput{Name: name, Color: "#aabbcc"})
	if err != nil {
		t.Fatalf("add member %s: %v", name, err)
	}
	return m
}

func TestOpenFresh(t *testing.T) {
	h := newHarness(t)
	st := h.tr.State()
	if len(st.InfractionTypes) != 3 {
		t.Errorf("infraction types = %d, want 3", len(st.InfractionTypes))
	}
	if st.Config.ResetTime != "23:59" || st.Config.ResetDay != 0 {
		t.Errorf("config = %+v, want Sunday 23:59", st.Config)
	}
	if st.Config.PINHash == "" {
		t.Error("default PIN hash not applied")
	}
}

func TestOpenRestoresSavedState(t *testing.T) {
	saved := state.NewState("", testNow)
	saved.Members = []model.Member{{ID: "ana", Name: "Ana", Points: 40}}
	live := &fakeLive{saved: &saved}
	hist := &fakeHistory{loaded: []model.WeeklySnapshot{{ID: "2025-06", Week: "2025-06"}}}

	tr := New(Deps{
		Live:           live,
		History:        hist,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		DefaultPINHash: "default",
		Now:            func() time.Time { return testNow },
	})
	tr.Open()

	st := tr.State()
	if len(st.Members) != 1 || st.Members[0].Points != 40 {
		t.Errorf("members = %+v, want Ana with 40", st.Members)
	}
	if len(st.History) != 1 {
		t.Errorf("history = %d, want 1", len(st.History))
	}
	if st.Config.PINHash != "default" {
		t.Errorf("PIN hash = %q, want default for empty saved hash", st.Config.PINHash)
	}

	tr.Close()
	if !hist.closed {
		t.Error("Close should close the history writer")
	}
}

func TestOpenLoadFailureKeepsDefaults(t *testing.T) {
	live := &fakeLive{loadErr: errors.New("disk gone")}
	rec := &countingRecorder{}
	tr := New(Deps{
		Live:     live,
		Recorder: rec,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return testNow },
	})
	tr.Open()

	if got := len(tr.State().InfractionTypes); got != 3 {
		t.Errorf("infraction types = %d, want defaults", got)
	}
	if rec.failures["state"] != 1 {
		t.Errorf("state failures = %d, want 1", rec.failures["state"])
	}
}

func TestAddMemberValidation(t *testing.T) {
	h := newHarness(t)
	h.member(t, "Ana")

	tests := []struct {
		name  string
		in    MemberInput
		field string
	}{
		{"too short", MemberInput{Name: "A"}, "name"},
		{"duplicate", MemberInput{Name: " ana "}, "name"},
		{"bad color", MemberInput{Name: "Leo", Color: "red"}, "color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.tr.AddMember(tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
	if got := len(h.tr.State().Members); got != 1 {
		t.Errorf("members = %d, want 1", got)
	}
}

func TestAddMemberPersistsAndNotifies(t *testing.T) {
	h := newHarness(t)
	saves := h.live.saves
	m := h.member(t, "Ana")

	if m.ID != "id-1" || m.Points != 0 {
		t.Errorf("member = %+v", m)
	}
	if h.live.saves != saves+1 {
		t.Errorf("saves = %d, want %d", h.live.saves, saves+1)
	}
	if h.live.saved == nil || len(h.live.saved.Members) != 1 {
		t.Error("saved state missing member")
	}
	last := h.sub.events[len(h.sub.events)-1]
	if last.Kind != state.EventMemberAdded || last.MemberName != "Ana" {
		t.Errorf("last event = %+v", last)
	}
}

func TestTaskValidation(t *testing.T) {
	h := newHarness(t)
	ana := h.member(t, "Ana")

	tests := []struct {
		name  string
		in    TaskInput
		field string
	}{
		{"short name", TaskInput{Name: "ab", Points: 5, AssignedMemberIDs: []string{ana.ID}}, "name"},
		{"zero points", TaskInput{Name: "Dishes", Points: 0, AssignedMemberIDs: []string{ana.ID}}, "points"},
		{"too many points", TaskInput{Name: "Dishes", Points: 1001, AssignedMemberIDs: []string{ana.ID}}, "points"},
		{"no assignee", TaskInput{Name: "Dishes", Points: 5}, "assigned_member_ids"},
		{"unknown assignee", TaskInput{Name: "Dishes", Points: 5, AssignedMemberIDs: []string{"ghost"}}, "assigned_member_ids"},
		{"lonely collaborative", TaskInput{Name: "Garage", Points: 5, AssignedMemberIDs: []string{ana.ID}, IsCollaborative: true}, "assigned_member_ids"},
		{"bad frequency", TaskInput{Name: "Dishes", Points: 5, Frequency: "hourly", AssignedMemberIDs: []string{ana.ID}}, "frequency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.tr.AddTask(tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("err = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}

	task, err := h.tr.AddTask(TaskInput{Name: "Dishes", Points: 5, AssignedMemberIDs: []string{ana.ID}})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if task.Frequency != model.FrequencyDaily {
		t.Errorf("frequency = %q, want daily default", task.Frequency)
	}
}

func TestMarkTaskAndStaleReference(t *testing.T) {
	h := newHarness(t)
	ana := h.member(t, "Ana")
	task, err := h.tr.AddTask(TaskInput{Name: "Dishes", Points: 5, AssignedMemberIDs: []string{ana.ID}})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}

	got, err := h.tr.MarkTask(task.ID, ana.ID, true)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !got.CompletedToday {
		t.Error("task should be completed today")
	}
	if _, err := h.tr.MarkTask(task.ID, ana.ID, true); err != nil {
		t.Fatalf("repeat mark: %v", err)
	}
	m, _ := state.FindMember(h.tr.State(), ana.ID)
	if m.Points != 5 {
		t.Errorf("points = %d, want 5 after repeated mark", m.Points)
	}

	_, err = h.tr.MarkTask("ghost", ana.ID, true)
	if !errors.Is(err, state.ErrStaleReference) {
		t.Errorf("err = %v, want stale reference", err)
	}
	if h.recorder.stale != 1 {
		t.Errorf("stale count = %d, want 1", h.recorder.stale)
	}
}

func TestClaimRewardAndEligibility(t *testing.T) {
	h := newHarness(t)
	ana := h.member(t, "Ana")
	r, err := h.tr.AddReward(RewardInput{Name: "Movie night", Threshold: 20})
	if err != nil {
		t.Fatalf("add reward: %v", err)
	}
	if r.MaxClaimsPerWeek != 1 {
		t.Errorf("max claims = %d, want default 1", r.MaxClaimsPerWeek)
	}

	el, err := h.tr.Eligibility(r.ID, ana.ID)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if el.Eligible || el.Reason != state.ReasonInsufficientPoints {
		t.Errorf("eligibility = %+v, want insufficient points", el)
	}
	if _, err := h.tr.ClaimReward(r.ID, ana.ID); !errors.Is(err, state.ErrNotEligible) {
		t.Errorf("claim err = %v, want not eligible", err)
	}

	points := 30
	if _, err := h.tr.EditMember(ana.ID, state.MemberPatch{Points: &points}); err != nil {
		t.Fatalf("edit member: %v", err)
	}
	if _, err := h.tr.ClaimReward(r.ID, ana.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	m, _ := state.FindMember(h.tr.State(), ana.ID)
	if m.Points != 10 {
		t.Errorf("points = %d, want 10", m.Points)
	}

	el, err = h.tr.Eligibility(r.ID, ana.ID)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if el.Reason != state.ReasonWeeklyLimit || el.ClaimsThisWeek != 1 {
		t.Errorf("eligibility = %+v, want weekly limit", el)
	}
}

func TestEditMemberRejectsNegativePoints(t *testing.T) {
	h := newHarness(t)
	ana := h.member(t, "Ana")
	neg := -1
	_, err := h.tr.EditMember(ana.ID, state.MemberPatch{Points: &neg})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "points" {
		t.Errorf("err = %v, want points validation error", err)
	}
}

func TestPenalizeAndCompensate(t *testing.T) {
	h := newHarness(t)
	ana := h.member(t, "Ana")
	points := 10
	if _, err := h.tr.EditMember(ana.ID, state.MemberPatch{Points: &points}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	inf, err := h.tr.Penalize(ana.ID, "1", "left it messy")
	if err != nil {
		t.Fatalf("penalize: %v", err)
	}
	m, _ := state.FindMember(h.tr.State(), ana.ID)
	if m.Points != 5 {
		t.Errorf("points = %d, want 5", m.Points)
	}

	if err := h.tr.CompensateInfraction(inf.ID); err != nil {
		t.Fatalf("compensate: %v", err)
	}
	m, _ = state.FindMember(h.tr.State(), ana.ID)
	if m.Points != 10 {
		t.Errorf("points = %d, want 10 after compensation", m.Points)
	}

	teeth, err := h.tr.Penalize(ana.ID, "3", "")
	if err != nil {
		t.Fatalf("penalize: %v", err)
	}
	if err := h.tr.CompensateInfraction(teeth.ID); !errors.Is(err, state.ErrNotCompensable) {
		t.Errorf("err = %v, want not compensable", err)
	}
}

func TestPersistenceFailureKeepsGoing(t *testing.T) {
	h := newHarness(t)
	h.live.saveErr = errors.New("read-only")

	if _, err := h.tr.AddMember(MemberInput{Name: "Ana"}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if got := len(h.tr.State().Members); got != 1 {
		t.Errorf("members = %d, want 1 despite save failure", got)
	}
	if h.recorder.failures["state"] != 1 {
		t.Errorf("state failures = %d, want 1", h.recorder.failures["state"])
	}
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)

	err := h.tr.Login("0000")
	var ae *auth.AttemptError
	if !errors.As(err, &ae) || ae.Remaining != 2 {
		t.Fatalf("err = %v, want 2 attempts left", err)
	}
	if h.tr.IsAdmin() {
		t.Fatal("admin after wrong PIN")
	}

	if err := h.tr.Login("1234"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !h.tr.IsAdmin() {
		t.Fatal("not admin after login")
	}
	h.tr.Logout()
	if h.tr.IsAdmin() {
		t.Error("admin after logout")
	}
}

func TestLoginLockout(t *testing.T) {
	h := newHarness(t)
	for range 2 {
		_ = h.tr.Login("9999")
	}
	if err := h.tr.Login("9999"); !errors.Is(err, auth.ErrLocked) {
		t.Fatalf("third failure = %v, want locked", err)
	}
	if err := h.tr.Login("1234"); !errors.Is(err, auth.ErrLocked) {
		t.Errorf("correct PIN during lockout = %v, want locked", err)
	}
}

func TestChangePIN(t *testing.T) {
	h := newHarness(t)

	if err := h.tr.ChangePIN("1234", "12"); !errors.As(err, new(*ValidationError)) {
		t.Errorf("short PIN err = %v, want validation error", err)
	}
	if err := h.tr.ChangePIN("1234", "567890"); err != nil {
		t.Fatalf("change PIN: %v", err)
	}
	if err := h.tr.Login("567890"); err != nil {
		t.Errorf("login with new PIN: %v", err)
	}
	if h.live.saved.Config.PINHash == "" {
		t.Error("new PIN hash not persisted")
	}
}

func TestUpdateConfiguration(t *testing.T) {
	h := newHarness(t)
	day, at := 6, "20:00"
	hash := "sneaky"

	cfg, err := h.tr.UpdateConfiguration(state.ConfigPatch{ResetDay: &day, ResetTime: &at, PINHash: &hash})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cfg.ResetDay != 6 || cfg.ResetTime != "20:00" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.PINHash != "" {
		t.Error("returned configuration exposes the PIN hash")
	}
	if got := h.tr.State().Config.PINHash; got == "sneaky" {
		t.Error("PIN hash changed through configuration update")
	}

	bad := "25:00"
	if _, err := h.tr.UpdateConfiguration(state.ConfigPatch{ResetTime: &bad}); !errors.As(err, new(*ValidationError)) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestResetWeek(t *testing.T) {
	h := newHarness(t)
	ana := h.member(t, "Ana")
	h.member(t, "Leo")
	task, err := h.tr.AddTask(TaskInput{Name: "Dishes", Points: 5, AssignedMemberIDs: []string{ana.ID}})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := h.tr.MarkTask(task.ID, ana.ID, true); err != nil {
		t.Fatalf("mark: %v", err)
	}

	snap, err := h.tr.ResetWeek(context.Background(), true)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if snap.Week != "2025-07" || snap.MemberPoints[ana.ID] != 5 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(h.history.puts) != 1 {
		t.Errorf("history puts = %d, want 1", len(h.history.puts))
	}

	st := h.tr.State()
	if len(st.History) != 1 {
		t.Errorf("in-memory history = %d, want 1", len(st.History))
	}
	if st.Tasks[0].CompletedToday {
		t.Error("task still completed after reset")
	}
	if st.Members[0].Points != 5 {
		t.Errorf("points = %d, want 5 kept across reset", st.Members[0].Points)
	}
	if !st.LastResetAt.Equal(testNow) {
		t.Errorf("last reset = %v, want %v", st.LastResetAt, testNow)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.tr.ResetWeek(ctx, false); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestScheduledResetUsesHouseholdZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	clock := testNow
	h := newHarness(t, func(d *Deps) {
		d.Location = loc
		d.Now = func() time.Time { return clock }
	})
	ana := h.member(t, "Ana")
	r, err := h.tr.AddReward(RewardInput{Name: "Ice cream", Threshold: 1})
	if err != nil {
		t.Fatalf("add reward: %v", err)
	}
	points := 5
	if _, err := h.tr.EditMember(ana.ID, state.MemberPatch{Points: &points}); err != nil {
		t.Fatalf("edit member: %v", err)
	}

	// Monday 04:59 UTC is Sunday 23:59 in UTC-5, the last minute of 2025-07.
	clock = time.Date(2025, 2, 17, 4, 59, 0, 0, time.UTC)
	if _, err := h.tr.ClaimReward(r.ID, ana.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := h.tr.State().Rewards[0].Claims[0].Week; got != "2025-07" {
		t.Errorf("claim week = %s, want 2025-07", got)
	}

	sched := scheduler.New(h.tr, time.Minute, loc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !sched.CheckAt(context.Background(), clock) {
		t.Fatal("scheduled reset did not fire at local Sunday 23:59")
	}

	if len(h.history.puts) != 1 {
		t.Fatalf("history puts = %d, want 1", len(h.history.puts))
	}
	snap := h.history.puts[0]
	if snap.Week != "2025-07" {
		t.Errorf("week label = %s, want 2025-07", snap.Week)
	}
	wantStart := time.Date(2025, 2, 10, 0, 0, 0, 0, loc)
	if !snap.StartAt.Equal(wantStart) {
		t.Errorf("week start = %v, want %v", snap.StartAt, wantStart)
	}
	if got := snap.ClaimedRewards[ana.ID]; len(got) != 1 {
		t.Errorf("claimed rewards in snapshot = %v, want the Sunday claim", got)
	}
	if last := h.tr.State().LastResetAt; last.Location() != loc || !last.Equal(clock) {
		t.Errorf("last reset = %v, want %v in %s", last, clock, loc)
	}

	el, err := h.tr.Eligibility(r.ID, ana.ID)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if el.ClaimsThisWeek != 1 {
		t.Errorf("claims this week = %d, want 1 before local midnight", el.ClaimsThisWeek)
	}
}

func TestResetWeekIfDueAfterManualReset(t *testing.T) {
	// 2025-02-16 is a Sunday; the default schedule is Sunday 23:59.
	clock := time.Date(2025, 2, 16, 23, 59, 10, 0, time.UTC)
	h := newHarness(t, func(d *Deps) {
		d.Now = func() time.Time { return clock }
	})
	st := h.tr.State()
	st.LastResetAt = clock.AddDate(0, 0, -7)
	h.live.saved = &st
	h.tr.Open()

	if _, err := h.tr.ResetWeek(context.Background(), true); err != nil {
		t.Fatalf("manual reset: %v", err)
	}
	_, reset, err := h.tr.ResetWeekIfDue(context.Background(), clock.Add(20*time.Second))
	if err != nil {
		t.Fatalf("scheduled reset: %v", err)
	}
	if reset {
		t.Error("scheduled reset ran after a manual reset the same day")
	}
	if len(h.history.puts) != 1 || len(h.tr.State().History) != 1 {
		t.Errorf("history puts = %d, in-memory = %d, want 1 each", len(h.history.puts), len(h.tr.State().History))
	}

	clock = clock.AddDate(0, 0, 7)
	snap, reset, err := h.tr.ResetWeekIfDue(context.Background(), clock)
	if err != nil || !reset {
		t.Fatalf("next week: reset = %v, err = %v", reset, err)
	}
	if snap.Week != "2025-08" {
		t.Errorf("week = %s, want 2025-08", snap.Week)
	}
}

func TestExportCSV(t *testing.T) {
	h := newHarness(t)
	ana := h.member(t, "Ana")
	h.member(t, "Leo")
	task, err := h.tr.AddTask(TaskInput{Name: "Dishes", Points: 5, AssignedMemberIDs: []string{ana.ID}})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := h.tr.MarkTask(task.ID, ana.ID, true); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := h.tr.ResetWeek(context.Background(), false); err != nil {
		t.Fatalf("reset: %v", err)
	}

	var buf bytes.Buffer
	if err := h.tr.ExportCSV(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "Semana,Miembro,Puntos,Tareas Completadas,Recompensas Ganadas\n" +
		"2025-07,Ana,5,1,0\n" +
		"2025-07,Leo,0,0,0\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}

	if got := h.tr.ExportFilename(testNow); got != "familia-tareas-historial-2025-02-12.csv" {
		t.Errorf("filename = %q", got)
	}
}
