package tracker

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

var csvHeader = []string{"Semana", "Miembro", "Puntos", "Tareas Completadas", "Recompensas Ganadas"}

// History returns the weekly snapshots, oldest first.
func (t *Tracker) History() []model.WeeklySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.state.History)
}

// ExportCSV writes one row per snapshot and current member. Members absent
// from a snapshot get zeros.
func (t *Tracker) ExportCSV(w io.Writer) error {
	t.mu.Lock()
	history := slices.Clone(t.state.History)
	members := slices.Clone(t.state.Members)
	t.mu.Unlock()

	return WriteCSV(w, history, members)
}

func WriteCSV(w io.Writer, history []model.WeeklySnapshot, members []model.Member) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, snap := range history {
		for _, m := range members {
			row := []string{
				snap.Week,
				m.Name,
				strconv.Itoa(snap.MemberPoints[m.ID]),
				strconv.Itoa(len(snap.CompletedTasks[m.ID])),
				strconv.Itoa(len(snap.ClaimedRewards[m.ID])),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ExportFilename returns the download name for an export made on day now.
func (t *Tracker) ExportFilename(now time.Time) string {
	return fmt.Sprintf("%s-historial-%s.csv", t.appName, now.Format(time.DateOnly))
}
