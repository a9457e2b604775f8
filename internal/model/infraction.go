package model

import "time"

type InfractionType struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Description  string `json:"description"`
	PointPenalty int    `json:"point_penalty"`
	Compensable  bool   `json:"compensable"`
}

type Infraction struct {
	ID          string    `json:"id"`
	TypeID      string    `json:"type_id"`
	MemberID    string    `json:"member_id"`
	At          time.Time `json:"at"`
	Compensated bool      `json:"compensated"`
	Note        string    `json:"note,omitempty"`
}
