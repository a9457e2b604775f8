package model

import "time"

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

type Task struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Points            int             `json:"points"`
	Frequency         Frequency       `json:"frequency"`
	AssignedMemberIDs []string        `json:"assigned_member_ids"`
	IsCollaborative   bool            `json:"is_collaborative"`
	CompletedBy       map[string]bool `json:"completed_by"`
	CompletedToday    bool            `json:"completed_today"`
	CreatedAt         time.Time       `json:"created_at"`
}
