package state

import (
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

// Action is a state transition request handled by Reduce.
type Action interface {
	Name() string
}

type LoadState struct {
	State   model.AppState
	History []model.WeeklySnapshot
}

type AddMember struct{ Member model.Member }

type EditMember struct {
	ID    string
	Patch MemberPatch
}

type RemoveMember struct{ ID string }

type AddTask struct{ Task model.Task }

type EditTask struct {
	ID    string
	Patch TaskPatch
}

type RemoveTask struct{ ID string }

type AddReward struct{ Reward model.Reward }

type EditReward struct {
	ID    string
	Patch RewardPatch
}

type RemoveReward struct{ ID string }

type AddInfractionType struct{ Type model.InfractionType }

type EditInfractionType struct {
	ID    string
	Patch InfractionTypePatch
}

type RemoveInfractionType struct{ ID string }

type MarkTask struct {
	TaskID    string
	MemberID  string
	Completed bool
}

// ClaimReward redeems a reward for MemberID, which may be
// model.FamilyClaimant for cooperative rewards.
type ClaimReward struct {
	RewardID string
	MemberID string
	At       time.Time
}

type PenalizeMember struct{ Infraction model.Infraction }

type CompensateInfraction struct{ InfractionID string }

type SetAdminMode struct{ Enabled bool }

type ResetWeek struct {
	Snapshot model.WeeklySnapshot
	At       time.Time
	Manual   bool
}

type UpdateConfiguration struct{ Patch ConfigPatch }

func (LoadState) Name() string            { return "load_state" }
func (AddMember) Name() string            { return "add_member" }
func (EditMember) Name() string           { return "edit_member" }
func (RemoveMember) Name() string         { return "remove_member" }
func (AddTask) Name() string              { return "add_task" }
func (EditTask) Name() string             { return "edit_task" }
func (RemoveTask) Name() string           { return "remove_task" }
func (AddReward) Name() string            { return "add_reward" }
func (EditReward) Name() string           { return "edit_reward" }
func (RemoveReward) Name() string         { return "remove_reward" }
func (AddInfractionType) Name() string    { return "add_infraction_type" }
func (EditInfractionType) Name() string   { return "edit_infraction_type" }
func (RemoveInfractionType) Name() string { return "remove_infraction_type" }
func (MarkTask) Name() string             { return "mark_task" }
func (ClaimReward) Name() string          { return "claim_reward" }
func (PenalizeMember) Name() string       { return "penalize_member" }
func (CompensateInfraction) Name() string { return "compensate_infraction" }
func (SetAdminMode) Name() string         { return "set_admin_mode" }
func (ResetWeek) Name() string            { return "reset_week" }
func (UpdateConfiguration) Name() string  { return "update_configuration" }

// Patches carry partial updates. Nil fields are left untouched.

type MemberPatch struct {
	Name   *string `json:"name"`
	Color  *string `json:"color"`
	Avatar *string `json:"avatar"`
	Points *int    `json:"points"`
}

type TaskPatch struct {
	Name              *string          `json:"name"`
	Description       *string          `json:"description"`
	Points            *int             `json:"points"`
	Frequency         *model.Frequency `json:"frequency"`
	AssignedMemberIDs *[]string        `json:"assigned_member_ids"`
	IsCollaborative   *bool            `json:"is_collaborative"`
}

type RewardPatch struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	Icon             *string `json:"icon"`
	Threshold        *int    `json:"threshold"`
	MaxClaimsPerWeek *int    `json:"max_claims_per_week"`
	IsCooperative    *bool   `json:"is_cooperative"`
}

type InfractionTypePatch struct {
	Label        *string `json:"label"`
	Description  *string `json:"description"`
	PointPenalty *int    `json:"point_penalty"`
	Compensable  *bool   `json:"compensable"`
}

type ConfigPatch struct {
	PINHash          *string `json:"-"`
	SoundsEnabled    *bool   `json:"sounds_enabled"`
	KioskMode        *bool   `json:"kiosk_mode"`
	RemindersEnabled *bool   `json:"reminders_enabled"`
	ResetDay         *int    `json:"reset_day"`
	ResetTime        *string `json:"reset_time"`
	Theme            *string `json:"theme"`
}
