package gatherer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"
)

// Step is one entry of a component's command sequence.
type Step struct {
	// Name labels the step in logs, e.g. "compile" or "bootstrap"
	Name string
	// Program and Args describe an external command
	Program string
	Args    []string
	// Diagnostic steps are informational; their failure is ignored
	Diagnostic bool
	// Func, when set, runs in-process instead of an external command
	Func func() error
}

// Identity is the redacted form of the step's command line: the program
// and, when it is not a flag, the first argument. Paths to key material
// and the remaining arguments never appear in it.
func (s Step) Identity() string {
	if s.Func != nil {
		return s.Name
	}
	return Identity(s.Program, s.Args)
}

// Identity returns the redacted form of a command line.
func Identity(program string, args []string) string {
	parts := []string{shellescape.Quote(program)}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		parts = append(parts, shellescape.Quote(args[0]))
	}
	return strings.Join(parts, " ")
}

// CommandError reports a pipeline command that exited unsuccessfully.
type CommandError struct {
	// Command is the redacted command identity
	Command  string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("There was an error on command \"%s [options]\" (%d).", e.Command, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// exitCodeNotFound mirrors what a shell reports for a missing program.
const exitCodeNotFound = 127

// exitCoder is satisfied by *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// NewCommandError wraps a failed command in the redacted report format,
// taking the exit code from err when it carries one.
func NewCommandError(step Step, err error) *CommandError {
	code := -1
	var exitErr exitCoder
	switch {
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound):
		code = exitCodeNotFound
	}
	return &CommandError{Command: step.Identity(), ExitCode: code, Err: err}
}

// Execute runs the steps in order. The first failing non-diagnostic step
// stops the sequence and is returned as a *CommandError.
func Execute(ctx context.Context, runner Runner, logger zerolog.Logger, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Debug().
			Str("step", step.Name).
			Str("command", step.Identity()).
			Msg("Running step")

		var err error
		if step.Func != nil {
			err = step.Func()
		} else {
			err = runner.Run(ctx, step.Program, step.Args...)
		}
		if err == nil {
			continue
		}

		if step.Diagnostic {
			logger.Debug().
				Err(err).
				Str("command", step.Identity()).
				Msg("Diagnostic command failed, ignoring")
			continue
		}
		if step.Func != nil {
			return fmt.Errorf("step %s failed: %w", step.Name, err)
		}

		cmdErr := NewCommandError(step, err)
		logger.Error().
			Str("command", cmdErr.Command).
			Int("exit_code", cmdErr.ExitCode).
			Msg("Command failed")
		return cmdErr
	}
	return nil
}
