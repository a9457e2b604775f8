package model

type Configuration struct {
	PINHash          string `json:"pin_hash"`
	SoundsEnabled    bool   `json:"sounds_enabled"`
	KioskMode        bool   `json:"kiosk_mode"`
	RemindersEnabled bool   `json:"reminders_enabled"`
	ResetDay         int    `json:"reset_day"`
	ResetTime        string `json:"reset_time"`
	Theme            string `json:"theme"`
}

// Public strips the PIN hash for API responses.
func (c Configuration) Public() Configuration {
	c.PINHash = ""
	return c
}
