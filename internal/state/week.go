package state

import (
	"fmt"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

// WeekLabel formats t as its ISO week-numbering year and week, e.g. "2025-07".
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, week)
}

// WeekBounds returns the Monday 00:00 start and the last millisecond of the
// Sunday that ends the week containing t, in t's location.
func WeekBounds(t time.Time) (start, end time.Time) {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	start = day.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ResetDue reports whether the weekly reset should fire at now: the weekday
// and the HH:MM match cfg and no reset happened yet that day. Both are read
// in now's location.
func ResetDue(now time.Time, cfg model.Configuration, lastReset time.Time) bool {
	if int(now.Weekday()) != cfg.ResetDay {
		return false
	}
	if now.Format("15:04") != cfg.ResetTime {
		return false
	}
	return lastReset.Before(StartOfDay(now))
}
