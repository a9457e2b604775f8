package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/choreweek/internal/config"
	"github.com/dukerupert/choreweek/internal/logging"
)

// Context is passed to every command's Run method.
type Context struct {
	Config *config.Config
	Logger *slog.Logger
}

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"YAML config file." type:"path" env:"CHOREWEEK_CONFIG"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP server and the weekly reset scheduler." default:"1"`
	Reset   ResetCmd   `cmd:"" help:"Close the current week now."`
	Export  ExportCmd  `cmd:"" help:"Export the weekly history as CSV."`
	Pin     PinCmd     `cmd:"" help:"Set the admin PIN."`
	Restore RestoreCmd `cmd:"" help:"Copy an archived snapshot from S3 back into the database."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("choreweek"),
		kong.Description("Household chores, points and rewards with a weekly reset"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closer := logging.Setup(cfg.Log.Level, logging.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	err = ctx.Run(&Context{Config: cfg, Logger: logger})
	closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
