package state

import (
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

const (
	DefaultResetDay  = 0 // Sunday
	DefaultResetTime = "23:59"
	DefaultTheme     = "family"
)

// DefaultConfiguration returns the settings of a fresh household.
func DefaultConfiguration(pinHash string) model.Configuration {
	return model.Configuration{
		PINHash:          pinHash,
		SoundsEnabled:    true,
		KioskMode:        false,
		RemindersEnabled: true,
		ResetDay:         DefaultResetDay,
		ResetTime:        DefaultResetTime,
		Theme:            DefaultTheme,
	}
}

// DefaultInfractionTypes are seeded into a fresh state.
func DefaultInfractionTypes() []model.InfractionType {
	return []model.InfractionType{
		{ID: "1", Label: "Bed not made", Description: "Did not make the bed in the morning", PointPenalty: 5, Compensable: true},
		{ID: "2", Label: "Toys left out", Description: "Did not put the toys away after playing", PointPenalty: 3, Compensable: true},
		{ID: "3", Label: "Teeth not brushed", Description: "Skipped brushing teeth", PointPenalty: 8, Compensable: false},
	}
}

// NewState returns an empty household with default settings, treating now
// as the last reset.
func NewState(pinHash string, now time.Time) model.AppState {
	return model.AppState{
		Members:         []model.Member{},
		Tasks:           []model.Task{},
		Rewards:         []model.Reward{},
		InfractionTypes: DefaultInfractionTypes(),
		Infractions:     []model.Infraction{},
		History:         []model.WeeklySnapshot{},
		Config:          DefaultConfiguration(pinHash),
		LastResetAt:     now,
	}
}
