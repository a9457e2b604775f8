package state

type EventKind string

const (
	EventStateLoaded           EventKind = "state.loaded"
	EventMemberAdded           EventKind = "member.added"
	EventMemberUpdated         EventKind = "member.updated"
	EventMemberRemoved         EventKind = "member.removed"
	EventTaskAdded             EventKind = "task.added"
	EventTaskUpdated           EventKind = "task.updated"
	EventTaskRemoved           EventKind = "task.removed"
	EventTaskCompleted         EventKind = "task.completed"
	EventTaskUncompleted       EventKind = "task.uncompleted"
	EventTaskFinished          EventKind = "task.finished"
	EventRewardAdded           EventKind = "reward.added"
	EventRewardUpdated         EventKind = "reward.updated"
	EventRewardRemoved         EventKind = "reward.removed"
	EventRewardClaimed         EventKind = "reward.claimed"
	EventInfractionTypeAdded   EventKind = "infraction_type.added"
	EventInfractionTypeUpdated EventKind = "infraction_type.updated"
	EventInfractionTypeRemoved EventKind = "infraction_type.removed"
	EventMemberPenalized       EventKind = "infraction.logged"
	EventInfractionCompensated EventKind = "infraction.compensated"
	EventAdminModeChanged      EventKind = "session.admin_mode"
	EventWeekReset             EventKind = "week.reset"
	EventConfigUpdated         EventKind = "config.updated"
)

const (
	EntityState          = "state"
	EntityMember         = "member"
	EntityTask           = "task"
	EntityReward         = "reward"
	EntityInfractionType = "infraction_type"
	EntityInfraction     = "infraction"
	EntitySession        = "session"
	EntityWeek           = "week"
	EntityConfig         = "config"
)

// Event describes one change produced by a transition. Subscribers decide
// what, if anything, the user sees.
type Event struct {
	Kind       EventKind `json:"kind"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id,omitempty"`
	MemberID   string    `json:"member_id,omitempty"`
	MemberName string    `json:"member_name,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Points     int       `json:"points,omitempty"`
	Manual     bool      `json:"manual,omitempty"`
	Enabled    bool      `json:"enabled,omitempty"`
	// Shared marks collaborative task completions and cooperative claims.
	Shared bool `json:"shared,omitempty"`
}
