package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/raphi011/vecna/internal/log"
)

// ExitError reports a command that ran but exited non-zero.
// Error returns the trimmed stderr when there is any, so git's own
// message reaches the user unchanged.
type ExitError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return fmt.Sprintf("%s %s: exit status %d", e.Name, strings.Join(e.Args, " "), e.ExitCode)
}

// RunContext executes a command in dir, discarding stdout.
func RunContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := run(ctx, dir, io.Discard, nil, name, args...)
	return err
}

// RunWithOutput executes a command in dir, streaming both stdout and
// stderr to out. Stderr is still captured for the returned error.
func RunWithOutput(ctx context.Context, dir string, out io.Writer, name string, args ...string) error {
	_, err := run(ctx, dir, out, out, name, args...)
	return err
}

// RunInteractive executes a command attached to the process's terminal.
func RunInteractive(ctx context.Context, dir, name string, args ...string) error {
	done := log.FromContext(ctx).Command(dir, name, args...)
	start := time.Now()

	c := exec.CommandContext(ctx, name, args...)
	c.Dir = dir
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	err := c.Run()
	done(time.Since(start))
	return err
}

// OutputContext executes a command in dir and returns its stdout.
func OutputContext(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	var stdout bytes.Buffer
	if _, err := run(ctx, dir, &stdout, nil, name, args...); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func run(ctx context.Context, dir string, stdout, stderrTee io.Writer, name string, args ...string) (int, error) {
	done := log.FromContext(ctx).Command(dir, name, args...)
	start := time.Now()

	c := exec.CommandContext(ctx, name, args...)
	c.Dir = dir
	c.Stdout = stdout
	var stderr bytes.Buffer
	c.Stderr = &stderr
	if stderrTee != nil {
		c.Stderr = io.MultiWriter(&stderr, stderrTee)
	}

	err := c.Run()
	done(time.Since(start))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), &ExitError{
			Name:     name,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}
	// binary missing, permission denied, ...
	return -1, err
}
