package status

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"appealbot/internal/domain"
)

type ShellResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// RunShell executes an owner diagnostic command under a hard timeout. On
// timeout the process is killed and the operation reported as failed; it is
// never retried.
func RunShell(ctx context.Context, command string, timeout time.Duration) (ShellResult, error) {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	errRun := cmd.Run()
	result := ShellResult{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(started),
	}

	if execCtx.Err() != nil {
		slog.Warn("Shell command timed out", slog.String("command", command),
			slog.Duration("timeout", timeout))

		return result, domain.ErrCommandTimeout
	}

	if errRun != nil {
		var exitErr *exec.ExitError
		if errors.As(errRun, &exitErr) {
			result.ExitCode = exitErr.ExitCode()

			return result, nil
		}

		return result, errRun
	}

	return result, nil
}
