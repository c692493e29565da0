package setup

import (
	"context"
	"fmt"

	"github.com/raphi011/vecna/internal/cmd"
	"github.com/raphi011/vecna/internal/log"
	"github.com/raphi011/vecna/internal/project"
)

// Request describes one worktree to provision.
type Request struct {
	Vars        ScriptVars
	Policy      project.WorktreePolicy
	SkipInstall bool
}

// Result reports what provisioning did.
type Result struct {
	Copied    []string `json:"copied,omitempty"`
	Installer string   `json:"installer,omitempty"`
	Scripts   []string `json:"scripts,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Provisioner runs the provisioning steps. Output of installers and
// scripts is streamed to the context logger's writer.
type Provisioner struct{}

// Run provisions req.Vars.Path. It never fails: problems are collected in
// Result.Warnings.
func (Provisioner) Run(ctx context.Context, req Request) *Result {
	l := log.FromContext(ctx)
	res := &Result{}
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		res.Warnings = append(res.Warnings, msg)
		l.Warn("%s", msg)
	}

	if len(req.Policy.FilesToCopy) > 0 {
		var patterns []string
		for _, p := range req.Policy.FilesToCopy {
			if err := validPattern(p); err != nil {
				warn("skip file copy: %v", err)
				continue
			}
			patterns = append(patterns, p)
		}
		copied, err := CopyFiles(req.Vars.MainRepo, req.Vars.Path, patterns)
		res.Copied = copied
		if err != nil {
			warn("copy files: %v", err)
		}
		l.Debug("copied files", "count", len(copied))
	}

	if req.Policy.AutoInstallDependencies && !req.SkipInstall {
		if pm, ok := DetectPackageManager(req.Vars.Path, req.Policy.PackageManagerOverride); ok {
			l.Printf("Installing dependencies with %s...\n", pm.Name)
			if err := cmd.RunWithOutput(ctx, req.Vars.Path, l.Writer(), pm.Name, pm.Args...); err != nil {
				warn("%s %v failed: %v", pm.Name, pm.Args, err)
			} else {
				res.Installer = pm.Name
			}
		}
	}

	for _, script := range req.Policy.PostCreateScripts {
		line := SubstitutePlaceholders(script, req.Vars)
		l.Printf("Running %s\n", line)
		if err := cmd.RunWithOutput(ctx, req.Vars.Path, l.Writer(), "sh", "-c", line); err != nil {
			warn("post-create script %q failed: %v", script, err)
			continue
		}
		res.Scripts = append(res.Scripts, script)
	}

	return res
}
