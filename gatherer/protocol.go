package gatherer

// protocol.go holds the fixed command line contract shared by every
// gatherer, whatever backend or language it is written in:
//
//	<gatherer> -i <data> -o <sigs> -t <times> -k <key> -s <record size>

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/perfgo/timesign/model"
)

// Invocation is the set of arguments passed to a gatherer.
type Invocation struct {
	Input      string
	Signatures string
	Timings    string
	Key        string
	RecordSize int
}

// NewInvocation returns the invocation for the fixed artifact names in dir.
// keyFile is the role-specific key name (PEM file, scalar descriptor or
// credential database).
func NewInvocation(dir, keyFile string, recordSize int) Invocation {
	return Invocation{
		Input:      filepath.Join(dir, model.DataFile),
		Signatures: filepath.Join(dir, model.SignaturesFile),
		Timings:    filepath.Join(dir, model.TimingsFile),
		Key:        filepath.Join(dir, keyFile),
		RecordSize: recordSize,
	}
}

// Args renders the invocation in contract order.
func (i Invocation) Args() []string {
	return []string{
		"-i", i.Input,
		"-o", i.Signatures,
		"-t", i.Timings,
		"-k", i.Key,
		"-s", strconv.Itoa(i.RecordSize),
	}
}

// Validate checks that every argument of the contract is present.
func (i Invocation) Validate() error {
	if i.Input == "" || i.Signatures == "" || i.Timings == "" || i.Key == "" {
		return errors.New("missing parameters: -i, -o, -t and -k are required")
	}
	if i.RecordSize <= 0 {
		return fmt.Errorf("record size must be positive, got %d", i.RecordSize)
	}
	return nil
}

// CompileStep builds a native gatherer with gcc.
func CompileStep(source, output string, flags []string) Step {
	args := append([]string{source, "-o", output, "-w"}, flags...)
	return Step{Name: "compile", Program: "gcc", Args: args}
}

// LinkedLibrariesStep lists the shared libraries of a built gatherer. It is
// purely informational.
func LinkedLibrariesStep(executable string) Step {
	return Step{Name: "ldd", Program: "ldd", Args: []string{executable}, Diagnostic: true}
}

// RunStep runs a built gatherer executable.
func RunStep(executable string, inv Invocation) Step {
	return Step{Name: "gather", Program: executable, Args: inv.Args()}
}

// RuntimeStep runs a gatherer through a language runtime, e.g.
// ["python"] or ["go", "run"].
func RuntimeStep(runtime []string, gatherer string, inv Invocation) Step {
	args := append([]string{}, runtime[1:]...)
	args = append(args, gatherer)
	args = append(args, inv.Args()...)
	return Step{Name: "gather", Program: runtime[0], Args: args}
}
