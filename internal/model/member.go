package model

import "time"

type Member struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Color            string    `json:"color"`
	Avatar           string    `json:"avatar"`
	Points           int       `json:"points"`
	CompletedTaskIDs []string  `json:"completed_task_ids"`
	ClaimedRewardIDs []string  `json:"claimed_reward_ids"`
	InfractionIDs    []string  `json:"infraction_ids"`
	CreatedAt        time.Time `json:"created_at"`
}
