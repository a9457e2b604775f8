package tracker

import (
	"strings"
	"time"

	"github.com/dukerupert/choreweek/internal/auth"
	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

// Login enables admin mode when pin matches the stored hash. Failures
// count towards the gate's lockout.
func (t *Tracker) Login(pin string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.gate.Verify(t.state.Config.PINHash, pin); err != nil {
		t.logger.Warn("admin login failed", "error", err)
		return err
	}
	_, err := t.dispatch(state.SetAdminMode{Enabled: true})
	return err
}

func (t *Tracker) Logout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dispatch(state.SetAdminMode{Enabled: false})
}

// SessionStatus reports admin mode and whether logins are suspended.
type SessionStatus struct {
	Admin      bool `json:"admin"`
	Locked     bool `json:"locked"`
	RetryAfter int  `json:"retry_after,omitempty"`
}

func (t *Tracker) Session() SessionStatus {
	locked, wait := t.gate.Locked()
	st := SessionStatus{Admin: t.IsAdmin(), Locked: locked}
	if locked {
		st.RetryAfter = int(wait.Round(time.Second) / time.Second)
	}
	return st
}

// ChangePIN replaces the PIN after checking the current one.
func (t *Tracker) ChangePIN(current, next string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.gate.Verify(t.state.Config.PINHash, current); err != nil {
		return err
	}
	return t.setPIN(next)
}

// SetPIN replaces the PIN without checking the current one. Used by the
// command line on the host.
func (t *Tracker) SetPIN(pin string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.setPIN(pin)
}

func (t *Tracker) setPIN(pin string) error {
	hash, err := auth.HashPIN(pin)
	if err != nil {
		return &ValidationError{Field: "pin", Message: err.Error()}
	}
	if _, err := t.dispatch(state.UpdateConfiguration{Patch: state.ConfigPatch{PINHash: &hash}}); err != nil {
		return err
	}
	t.logger.Info("admin PIN changed")
	return nil
}

// UpdateConfiguration merges p into the settings. The PIN hash can only
// change through ChangePIN or SetPIN.
func (t *Tracker) UpdateConfiguration(p state.ConfigPatch) (model.Configuration, error) {
	p.PINHash = nil
	if p.Theme != nil {
		theme := strings.TrimSpace(*p.Theme)
		if theme == "" || len(theme) > 30 {
			return model.Configuration{}, invalid("theme", "must be 1 to 30 characters")
		}
		p.Theme = &theme
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	day, at := t.state.Config.ResetDay, t.state.Config.ResetTime
	if p.ResetDay != nil {
		day = *p.ResetDay
	}
	if p.ResetTime != nil {
		at = *p.ResetTime
	}
	if err := validateSchedule(day, at); err != nil {
		return model.Configuration{}, err
	}

	if _, err := t.dispatch(state.UpdateConfiguration{Patch: p}); err != nil {
		return model.Configuration{}, err
	}
	return t.state.Config.Public(), nil
}
