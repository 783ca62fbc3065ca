package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gorewood/typeset/internal/config"
	"github.com/gorewood/typeset/internal/job"
	"github.com/gorewood/typeset/internal/logging"
	"github.com/gorewood/typeset/internal/output"
	"github.com/gorewood/typeset/internal/templates"
)

// app bundles what a command needs after config and flags are resolved.
type app struct {
	root   string
	cfg    config.Config
	logger *slog.Logger
	store  templates.Store
	runner *job.Runner
}

// newApp loads the configuration for the --project root and applies the
// persistent logging flags over it.
func newApp(cmd *cobra.Command) (*app, error) {
	root := persistentFlag(cmd, "project")
	if root == "" {
		root = "."
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, output.NewUserErrorWithCause(err.Error(), err)
	}
	if v := persistentFlag(cmd, "log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := persistentFlag(cmd, "log-format"); v != "" {
		cfg.LogFormat = v
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, output.NewUserErrorWithCause(err.Error(), err)
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, output.NewUserErrorWithCause(err.Error(), err)
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	})

	store := templates.NewStore(root)
	logger.Debug("config loaded",
		"project", root,
		"engine", cfg.Engine,
		"templates", store.ProjectDir,
		"global_templates", store.GlobalDir,
	)

	return &app{
		root:   root,
		cfg:    cfg,
		logger: logger,
		store:  store,
		runner: job.NewRunner(store, cfg, job.WithLogger(logger)),
	}, nil
}
