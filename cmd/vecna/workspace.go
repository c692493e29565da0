package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raphi011/vecna/internal/config"
	"github.com/raphi011/vecna/internal/fetchcache"
	"github.com/raphi011/vecna/internal/git"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/project"
	"github.com/raphi011/vecna/internal/reconcile"
	"github.com/raphi011/vecna/internal/setup"
	"github.com/raphi011/vecna/internal/ui"
	"github.com/raphi011/vecna/internal/ui/prompt"
)

// workspace is the engine wired for the project the command runs in.
type workspace struct {
	engine *reconcile.Engine
	store  *project.Store
	rc     reconcile.Context
	cfg    *config.Config
}

// settings returns the user config attached by the root command.
func settings(ctx context.Context) *config.Config {
	if cfg := config.FromContext(ctx); cfg != nil {
		return cfg
	}
	cfg := config.Default()
	return &cfg
}

// openWorkspace resolves the project from the working directory, falling
// back to the default project outside any repository.
func openWorkspace(ctx context.Context) (*workspace, error) {
	l := log.FromContext(ctx)
	cfg := settings(ctx)

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	reg, err := project.LoadRegistry()
	if err != nil {
		l.Warn("%v", err)
		reg = nil
	}

	store, err := project.Resolve(cwd, reg)
	if err != nil {
		if errors.Is(err, git.ErrNotARepository) {
			return nil, fmt.Errorf("%w (no default project set, see \"vecna default\")", err)
		}
		return nil, err
	}
	l.Debug("resolved project", "root", store.Root)

	opts := reconcile.Options{
		Git:         git.NewWithRemote(store.Root, cfg.Remote),
		Store:       store,
		Provisioner: setup.Provisioner{},
		Settings: reconcile.Settings{
			BaseDir:           cfg.WorktreeDir,
			ProtectedBranches: cfg.ProtectedBranches,
			Concurrency:       cfg.Concurrency,
		},
	}
	if throttle, err := fetchcache.New(cfg.FetchInterval); err != nil {
		l.Warn("fetch throttle unavailable, skipping background fetch: %v", err)
	} else {
		opts.Throttle = throttle
	}

	return &workspace{
		engine: reconcile.New(opts),
		store:  store,
		rc:     reconcile.Context{Cwd: cwd},
		cfg:    cfg,
	}, nil
}

// confirm asks question on the terminal. Without a terminal it declines
// and tells the user how to proceed.
func confirm(ctx context.Context, question string) bool {
	l := log.FromContext(ctx)
	if !ui.Interactive() {
		l.Println("Not a terminal; re-run with --force to proceed.")
		return false
	}
	res, err := prompt.Confirm(question)
	if err != nil {
		l.Warn("prompt: %v", err)
		return false
	}
	return res.Confirmed && !res.Cancelled
}
