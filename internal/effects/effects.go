// Package effects turns reducer events into notices shown to the household.
package effects

import (
	"fmt"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

const (
	SoundSuccess = "success"
	SoundReward  = "reward"
	SoundError   = "error"
)

// Notice is the user-facing side of an event. Playing Sound and showing
// Confetti is left to the client.
type Notice struct {
	Level    Level  `json:"level"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Sound    string `json:"sound,omitempty"`
	Confetti bool   `json:"confetti,omitempty"`
}

// Describe maps ev to a notice. It reports false for events nobody needs
// to be told about, such as CRUD edits made in admin mode.
func Describe(ev state.Event, cfg model.Configuration) (Notice, bool) {
	var n Notice
	switch ev.Kind {
	case state.EventTaskCompleted:
		n = Notice{
			Level:   LevelSuccess,
			Title:   "Task completed",
			Message: fmt.Sprintf("%s completed %q (+%d points)", ev.MemberName, ev.Subject, ev.Points),
			Sound:   SoundSuccess,
		}
	case state.EventTaskFinished:
		if !ev.Shared {
			return Notice{}, false
		}
		n = Notice{
			Level:    LevelSuccess,
			Title:    "Team effort",
			Message:  fmt.Sprintf("Everyone finished %q", ev.Subject),
			Sound:    SoundReward,
			Confetti: true,
		}
	case state.EventRewardClaimed:
		who := ev.MemberName
		if ev.Shared && ev.MemberID == model.FamilyClaimant {
			who = "The family"
		}
		n = Notice{
			Level:    LevelSuccess,
			Title:    "Reward claimed",
			Message:  fmt.Sprintf("%s claimed %q", who, ev.Subject),
			Sound:    SoundReward,
			Confetti: true,
		}
	case state.EventMemberPenalized:
		n = Notice{
			Level:   LevelWarning,
			Title:   "Infraction logged",
			Message: fmt.Sprintf("%s: %s (%d points)", ev.MemberName, ev.Subject, ev.Points),
			Sound:   SoundError,
		}
	case state.EventInfractionCompensated:
		n = Notice{
			Level:   LevelInfo,
			Title:   "Infraction compensated",
			Message: fmt.Sprintf("%s made up for %q", ev.MemberName, ev.Subject),
		}
	case state.EventWeekReset:
		n = Notice{
			Level:   LevelInfo,
			Title:   "New week",
			Message: fmt.Sprintf("Week %s archived with %d points", ev.Subject, ev.Points),
		}
	default:
		return Notice{}, false
	}
	if !cfg.SoundsEnabled {
		n.Sound = ""
	}
	return n, true
}
