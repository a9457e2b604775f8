package state

import (
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

// TotalPoints sums the points of every member.
func TotalPoints(s model.AppState) int {
	total := 0
	for _, m := range s.Members {
		total += m.Points
	}
	return total
}

// ClaimsInWeek counts claims of reward in the given ISO week. Cooperative
// rewards count every claim; individual rewards only the claimant's.
func ClaimsInWeek(r model.Reward, claimant, week string) int {
	n := 0
	for _, c := range r.Claims {
		if c.Week != week {
			continue
		}
		if r.IsCooperative || c.MemberID == claimant {
			n++
		}
	}
	return n
}

// Eligible reports whether claimant may claim reward at now. It returns nil
// when the claim is allowed, an *IneligibleError when it is not, and a
// *StaleReferenceError when the claimant is not a member.
func Eligible(s model.AppState, r model.Reward, claimant string, now time.Time) error {
	var have int
	if r.IsCooperative {
		have = TotalPoints(s)
	} else {
		i := memberIndex(s.Members, claimant)
		if i < 0 {
			return &StaleReferenceError{Action: ClaimReward{}.Name(), Entity: EntityMember, ID: claimant}
		}
		have = s.Members[i].Points
	}
	if have < r.Threshold {
		return &IneligibleError{RewardID: r.ID, MemberID: claimant, Reason: ReasonInsufficientPoints, Need: r.Threshold, Have: have}
	}
	if r.MaxClaimsPerWeek > 0 {
		if n := ClaimsInWeek(r, claimant, WeekLabel(now)); n >= r.MaxClaimsPerWeek {
			return &IneligibleError{RewardID: r.ID, MemberID: claimant, Reason: ReasonWeeklyLimit, Need: r.MaxClaimsPerWeek, Have: n}
		}
	}
	return nil
}
