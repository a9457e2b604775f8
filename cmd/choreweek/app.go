package main

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/choreweek/internal/archive"
	"github.com/dukerupert/choreweek/internal/auth"
	"github.com/dukerupert/choreweek/internal/config"
	"github.com/dukerupert/choreweek/internal/database"
	"github.com/dukerupert/choreweek/internal/history"
	"github.com/dukerupert/choreweek/internal/store"
	"github.com/dukerupert/choreweek/internal/tracker"
)

// app holds what every command needs: the database (nil when it could not
// be opened), the stores over it and an opened tracker.
type app struct {
	db        *sql.DB
	states    *store.StateStore
	snapshots *store.SnapshotStore
	pushes    *store.PushStore
	archive   *archive.Archiver
	tracker   *tracker.Tracker
	loc       *time.Location
}

// openApp wires storage and the tracker. A database that cannot be opened
// is logged and the tracker runs in memory only.
func openApp(cfg *config.Config, rec tracker.Recorder, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{
		loc: loc,
		archive: archive.New(archive.Config{
			Endpoint:   cfg.S3.Endpoint,
			Bucket:     cfg.S3.Bucket,
			Region:     cfg.S3.Region,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Prefix:     cfg.S3.Prefix,
			Passphrase: cfg.S3.Passphrase,
		}),
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("database unavailable, running in memory", "path", cfg.Database.Path, "error", err)
		if rec != nil {
			rec.PersistenceFailure("state")
		}
	} else {
		a.db = db
		a.states = store.NewStateStore(db)
		a.snapshots = store.NewSnapshotStore(db)
		a.pushes = store.NewPushStore(db)
	}

	pinHash, err := auth.HashPIN(cfg.Auth.DefaultPIN)
	if err != nil {
		a.close()
		return nil, err
	}

	var snapStore history.SnapshotStore
	if a.snapshots != nil {
		snapStore = a.snapshots
	}
	writer := history.NewWriter(snapStore, a.archive, logger, func(target string, _ error) {
		if rec != nil {
			rec.PersistenceFailure(target)
		}
	})

	deps := tracker.Deps{
		History:        writer,
		Gate:           auth.NewGate(cfg.Auth.MaxAttempts, cfg.Auth.Lockout),
		Recorder:       rec,
		Logger:         logger,
		DefaultPINHash: pinHash,
		AppName:        cfg.App.Name,
		Location:       loc,
	}
	if a.states != nil {
		deps.Live = a.states
	}
	a.tracker = tracker.New(deps)
	a.tracker.Open()
	return a, nil
}

// close drains pending snapshot writes, then closes the database.
func (a *app) close() {
	if a.tracker != nil {
		a.tracker.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
