package model

import "time"

// AppState is the aggregate root. Entities reference each other by id only.
type AppState struct {
	Members         []Member         `json:"members"`
	Tasks           []Task           `json:"tasks"`
	Rewards         []Reward         `json:"rewards"`
	InfractionTypes []InfractionType `json:"infraction_types"`
	Infractions     []Infraction     `json:"infractions"`
	History         []WeeklySnapshot `json:"history,omitempty"`
	Config          Configuration    `json:"config"`
	IsAdminMode     bool             `json:"is_admin_mode"`
	LastResetAt     time.Time        `json:"last_reset_at"`
}
