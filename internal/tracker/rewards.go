package tracker

import (
	"errors"
	"strings"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

func (t *Tracker) AddReward(in RewardInput) (model.Reward, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.MaxClaimsPerWeek == 0 {
		in.MaxClaimsPerWeek = 1
	}
	if err := validateReward(in); err != nil {
		return model.Reward{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	r := model.Reward{
		ID:               t.newID(),
		Name:             in.Name,
		Description:      strings.TrimSpace(in.Description),
		Icon:             in.Icon,
		Threshold:        in.Threshold,
		MaxClaimsPerWeek: in.MaxClaimsPerWeek,
		IsCooperative:    in.IsCooperative,
		CreatedAt:        t.now(),
	}
	if _, err := t.dispatch(state.AddReward{Reward: r}); err != nil {
		return model.Reward{}, err
	}
	r, _ = state.FindReward(t.state, r.ID)
	return r, nil
}

func (t *Tracker) EditReward(id string, p state.RewardPatch) (model.Reward, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := state.FindReward(t.state, id); ok {
		in := RewardInput{Name: cur.Name, Threshold: cur.Threshold, MaxClaimsPerWeek: cur.MaxClaimsPerWeek}
		if p.Name != nil {
			name := strings.TrimSpace(*p.Name)
			p.Name = &name
			in.Name = name
		}
		if p.Threshold != nil {
			in.Threshold = *p.Threshold
		}
		if p.MaxClaimsPerWeek != nil {
			in.MaxClaimsPerWeek = *p.MaxClaimsPerWeek
		}
		if err := validateReward(in); err != nil {
			return model.Reward{}, err
		}
	}

	if _, err := t.dispatch(state.EditReward{ID: id, Patch: p}); err != nil {
		return model.Reward{}, err
	}
	r, _ := state.FindReward(t.state, id)
	return r, nil
}

func (t *Tracker) RemoveReward(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.dispatch(state.RemoveReward{ID: id})
	return err
}

// ClaimReward redeems rewardID for memberID. Cooperative rewards accept
// model.FamilyClaimant as the member.
func (t *Tracker) ClaimReward(rewardID, memberID string) (model.Reward, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.dispatch(state.ClaimReward{RewardID: rewardID, MemberID: memberID, At: t.now()}); err != nil {
		return model.Reward{}, err
	}
	r, _ := state.FindReward(t.state, rewardID)
	return r, nil
}

// Eligibility describes whether a claim would currently succeed.
type Eligibility struct {
	Eligible       bool         `json:"eligible"`
	Reason         state.Reason `json:"reason,omitempty"`
	Available      int          `json:"available"`
	Threshold      int          `json:"threshold"`
	ClaimsThisWeek int          `json:"claims_this_week"`
	MaxPerWeek     int          `json:"max_per_week"`
}

func (t *Tracker) Eligibility(rewardID, memberID string) (Eligibility, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := state.FindReward(t.state, rewardID)
	if !ok {
		return Eligibility{}, &state.StaleReferenceError{Action: "eligibility", Entity: state.EntityReward, ID: rewardID}
	}
	now := t.now()
	out := Eligibility{
		Threshold:      r.Threshold,
		ClaimsThisWeek: state.ClaimsInWeek(r, memberID, state.WeekLabel(now)),
		MaxPerWeek:     r.MaxClaimsPerWeek,
	}
	if r.IsCooperative {
		out.Available = state.TotalPoints(t.state)
	} else if m, ok := state.FindMember(t.state, memberID); ok {
		out.Available = m.Points
	}

	err := state.Eligible(t.state, r, memberID, now)
	var ie *state.IneligibleError
	switch {
	case err == nil:
		out.Eligible = true
	case errors.As(err, &ie):
		out.Reason = ie.Reason
	default:
		return Eligibility{}, err
	}
	return out, nil
}
