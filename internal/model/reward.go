package model

import "time"

// FamilyClaimant is the claimant id recorded when a cooperative reward is
// claimed on behalf of the whole household.
const FamilyClaimant = "family"

type Reward struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Icon             string        `json:"icon"`
	Threshold        int           `json:"threshold"`
	MaxClaimsPerWeek int           `json:"max_claims_per_week"`
	IsCooperative    bool          `json:"is_cooperative"`
	Claims           []ClaimRecord `json:"claims"`
	CreatedAt        time.Time     `json:"created_at"`
}

type ClaimRecord struct {
	MemberID string    `json:"member_id"`
	At       time.Time `json:"at"`
	Week     string    `json:"week"`
}
