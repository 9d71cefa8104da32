// Package gatherertest provides a recording gatherer.Runner for tests.
package gatherertest

import (
	"context"
	"fmt"
	"strings"
)

// Call is one recorded program invocation.
type Call struct {
	Program string
	Args    []string
}

func (c Call) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// ExitError mimics *exec.ExitError for a given exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

// Runner records every call. Handler, when set, decides the output and
// error of a call; otherwise calls succeed with empty output.
type Runner struct {
	Calls   []Call
	Handler func(call Call) (string, error)
}

func (r *Runner) Run(ctx context.Context, program string, args ...string) error {
	_, err := r.Output(ctx, program, args...)
	return err
}

func (r *Runner) Output(_ context.Context, program string, args ...string) (string, error) {
	call := Call{Program: program, Args: append([]string(nil), args...)}
	r.Calls = append(r.Calls, call)
	if r.Handler == nil {
		return "", nil
	}
	return r.Handler(call)
}

// Programs returns the program of every recorded call, in order.
func (r *Runner) Programs() []string {
	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.Program)
	}
	return out
}

// FailOn returns a handler that fails calls to program with the exit code.
func FailOn(program string, code int) func(Call) (string, error) {
	return func(c Call) (string, error) {
		if c.Program == program {
			return "", &ExitError{Code: code}
		}
		return "", nil
	}
}
