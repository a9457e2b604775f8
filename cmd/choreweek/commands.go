package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

type ResetCmd struct{}

func (c *ResetCmd) Run(cc *Context) error {
	a, err := openApp(cc.Config, nil, cc.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.tracker.ResetWeek(context.Background(), true)
	if err != nil {
		return err
	}
	fmt.Printf("Closed week %s (%d points, %d tasks)\n", snap.Week, snap.Stats.TotalPoints, snap.Stats.TotalTasks)
	return nil
}

type ExportCmd struct {
	Out string `help:"Output file; \"-\" writes to stdout. Defaults to <app>-historial-<date>.csv." short:"o"`
}

func (c *ExportCmd) Run(cc *Context) error {
	a, err := openApp(cc.Config, nil, cc.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	var w io.Writer = os.Stdout
	out := c.Out
	if out == "" {
		out = a.tracker.ExportFilename(time.Now())
	}
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := a.tracker.ExportCSV(w); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	if out != "-" {
		fmt.Printf("Wrote %s\n", out)
	}
	return nil
}

type PinCmd struct {
	NewPIN string `arg:"" name:"new-pin" help:"New admin PIN (4 to 20 characters)."`
}

func (c *PinCmd) Run(cc *Context) error {
	a, err := openApp(cc.Config, nil, cc.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	if a.states == nil {
		return fmt.Errorf("database unavailable, PIN would not be saved")
	}
	if err := a.tracker.SetPIN(c.NewPIN); err != nil {
		return err
	}
	fmt.Println("PIN updated")
	return nil
}

type RestoreCmd struct {
	Week string `arg:"" help:"Snapshot id (ISO week, e.g. 2025-07)."`
}

func (c *RestoreCmd) Run(cc *Context) error {
	a, err := openApp(cc.Config, nil, cc.Logger)
	if err != nil {
		return err
	}
	defer a.close()

	if a.snapshots == nil {
		return fmt.Errorf("database unavailable")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snap, err := a.archive.Fetch(ctx, c.Week)
	if err != nil {
		return err
	}
	existing, err := a.snapshots.Get(snap.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		cc.Logger.Warn("replacing stored snapshot", "week", snap.ID)
	}
	if err := a.snapshots.Put(*snap); err != nil {
		return err
	}
	fmt.Printf("Restored week %s; it appears in the history after the next start\n", snap.Week)
	return nil
}
