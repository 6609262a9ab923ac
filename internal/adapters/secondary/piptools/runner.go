// Package piptools wraps the Python packaging command-line tools used by the audit.
package piptools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ml-audit-platform/internal/core/domain"
)

// Runner executes one external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the local host, each bounded by Timeout.
type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	entry := log.WithFields(log.Fields{
		"command":     name,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s not found in PATH", domain.ErrToolUnavailable, name)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s timed out after %s", domain.ErrToolUnavailable, name, r.Timeout)
	}

	// pip-audit and safety exit non-zero when they find vulnerabilities; the
	// report on stdout is still valid in that case.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stdout.Len() == 0 {
			return nil, fmt.Errorf("%w: %s exited with code %d: %s",
				domain.ErrToolUnavailable, name, exitErr.ExitCode(), lastLine(stderr.String()))
		}
		entry.WithField("exit_code", exitErr.ExitCode()).Debug("Command exited non-zero")
	} else if err != nil {
		return nil, fmt.Errorf("%w: run %s: %w", domain.ErrToolUnavailable, name, err)
	}

	if stderr.Len() > 0 {
		entry = entry.WithField("stderr", lastLine(stderr.String()))
	}
	entry.Debug("Command finished")
	return stdout.Bytes(), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
