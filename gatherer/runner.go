package gatherer

// runner.go contains the process execution layer every pipeline command
// goes through.

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// Runner runs external programs. It is an interface so the pipeline can be
// exercised without the real toolchain or crypto CLIs installed.
type Runner interface {
	// Run executes the program to completion, streaming its output.
	Run(ctx context.Context, program string, args ...string) error
	// Output executes the program and returns its standard output.
	Output(ctx context.Context, program string, args ...string) (string, error)
}

// ExecRunner runs programs with os/exec. Nil writers default to the
// harness's own stdout and stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, program string, args ...string) error {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func (r ExecRunner) Output(ctx context.Context, program string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, program, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}
