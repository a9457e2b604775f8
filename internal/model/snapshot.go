package model

import "time"

type WeeklySnapshot struct {
	ID             string              `json:"id"`
	Week           string              `json:"week"`
	StartAt        time.Time           `json:"start_at"`
	EndAt          time.Time           `json:"end_at"`
	MemberPoints   map[string]int      `json:"member_points"`
	CompletedTasks map[string][]string `json:"completed_tasks"`
	ClaimedRewards map[string][]string `json:"claimed_rewards"`
	Infractions    []Infraction        `json:"infractions"`
	Stats          SnapshotStats       `json:"stats"`
}

type SnapshotStats struct {
	TotalPoints        int    `json:"total_points"`
	TotalTasks         int    `json:"total_tasks"`
	TotalRewards       int    `json:"total_rewards"`
	MostActiveMemberID string `json:"most_active_member_id"`
}
