package tracker

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/choreweek/internal/model"
)

var (
	hexColorRegexp   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	timeFormatRegexp = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// ValidationError reports input that breaks a field constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func checkLength(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if n < minLen {
		return invalid(field, "must be at least %d characters", minLen)
	}
	if n > maxLen {
		return invalid(field, "must be at most %d characters", maxLen)
	}
	return nil
}

type MemberInput struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Avatar string `json:"avatar"`
}

func validateMember(in MemberInput, members []model.Member, selfID string) error {
	if err := checkLength("name", in.Name, 2, 50); err != nil {
		return err
	}
	for _, m := range members {
		if m.ID != selfID && strings.EqualFold(m.Name, in.Name) {
			return invalid("name", "a member named %q already exists", m.Name)
		}
	}
	if in.Color != "" && !hexColorRegexp.MatchString(in.Color) {
		return invalid("color", "must be a hex color like #1a2b3c")
	}
	return nil
}

type TaskInput struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Points            int             `json:"points"`
	Frequency         model.Frequency `json:"frequency"`
	AssignedMemberIDs []string        `json:"assigned_member_ids"`
	IsCollaborative   bool            `json:"is_collaborative"`
}

func validateTask(in TaskInput, members []model.Member) error {
	if err := checkLength("name", in.Name, 3, 100); err != nil {
		return err
	}
	if in.Points < 1 || in.Points > 1000 {
		return invalid("points", "must be between 1 and 1000")
	}
	if !in.Frequency.Valid() {
		return invalid("frequency", "must be %q or %q", model.FrequencyDaily, model.FrequencyWeekly)
	}
	if len(in.AssignedMemberIDs) == 0 {
		return invalid("assigned_member_ids", "assign at least one member")
	}
	if in.IsCollaborative && len(in.AssignedMemberIDs) < 2 {
		return invalid("assigned_member_ids", "a collaborative task needs at least two members")
	}
	seen := make(map[string]bool, len(in.AssignedMemberIDs))
	for _, id := range in.AssignedMemberIDs {
		if seen[id] {
			return invalid("assigned_member_ids", "member %q assigned twice", id)
		}
		seen[id] = true
		if !slices.ContainsFunc(members, func(m model.Member) bool { return m.ID == id }) {
			return invalid("assigned_member_ids", "unknown member %q", id)
		}
	}
	return nil
}

type RewardInput struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Icon             string `json:"icon"`
	Threshold        int    `json:"threshold"`
	MaxClaimsPerWeek int    `json:"max_claims_per_week"`
	IsCooperative    bool   `json:"is_cooperative"`
}

func validateReward(in RewardInput) error {
	if err := checkLength("name", in.Name, 3, 100); err != nil {
		return err
	}
	if in.Threshold < 1 {
		return invalid("threshold", "must be at least 1")
	}
	if in.MaxClaimsPerWeek < 1 {
		return invalid("max_claims_per_week", "must be at least 1")
	}
	return nil
}

type InfractionTypeInput struct {
	Label        string `json:"label"`
	Description  string `json:"description"`
	PointPenalty int    `json:"point_penalty"`
	Compensable  bool   `json:"compensable"`
}

func validateInfractionType(in InfractionTypeInput) error {
	if err := checkLength("label", in.Label, 3, 100); err != nil {
		return err
	}
	if err := checkLength("description", in.Description, 5, 200); err != nil {
		return err
	}
	if in.PointPenalty < 1 || in.PointPenalty > 100 {
		return invalid("point_penalty", "must be between 1 and 100")
	}
	return nil
}

func validateSchedule(day int, at string) error {
	if day < 0 || day > 6 {
		return invalid("reset_day", "must be between 0 (Sunday) and 6 (Saturday)")
	}
	if !timeFormatRegexp.MatchString(at) {
		return invalid("reset_time", "must be HH:MM")
	}
	return nil
}
