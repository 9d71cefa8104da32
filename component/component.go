// Package component holds the closed set of signing backends the harness
// can drive and turns a run configuration into the backend's command
// sequence.
package component

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/perfgo/timesign/gatherer"
	"github.com/perfgo/timesign/model"
)

// Kind tells how a component's gatherer is built and started.
type Kind int

const (
	// Native gatherers are C sources compiled with gcc and linked against
	// the backend library
	Native Kind = iota
	// Script gatherers run through an interpreter
	Script
	// Managed gatherers run through a language toolchain, e.g. go run
	Managed
)

func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Script:
		return "script"
	case Managed:
		return "managed"
	}
	return "unknown"
}

// Default gatherer locations, relative to the working directory.
const (
	DefaultNativeGatherer  = "time_sign.c"
	DefaultScriptGatherer  = "time_sign.py"
	DefaultManagedGatherer = "./gatherers/golang"
)

// ErrUnknownComponent is returned by Lookup for names outside the registry.
var ErrUnknownComponent = errors.New("unknown component")

// Component describes one signing backend.
type Component struct {
	Name string
	Kind Kind
	// Runtime is the command prefix for Script and Managed gatherers
	Runtime []string
	// KeyFile is the artifact handed to the gatherer with -k
	KeyFile string
	// NeedsScalar is set when the gatherer reads the scalar descriptor
	NeedsScalar bool
	// Encoding is the layout of the signatures the gatherer writes
	Encoding gatherer.Encoding

	defaultFlags func(ctx context.Context, runner gatherer.Runner) ([]string, error)
	bootstrap    func(dir string) []gatherer.Step
}

var registry = []*Component{
	{
		Name:         "openssl",
		Kind:         Native,
		KeyFile:      model.PrivateKeyPEMFile,
		Encoding:     gatherer.EncodingDER,
		defaultFlags: staticFlags("-lssl", "-lcrypto"),
	},
	{
		Name:         "nss",
		Kind:         Native,
		KeyFile:      model.CredentialDBDir,
		Encoding:     gatherer.EncodingDER,
		defaultFlags: nssFlags,
		bootstrap:    nssBootstrap,
	},
	{
		Name:         "gnutls",
		Kind:         Native,
		KeyFile:      model.PrivateKeyPEMFile,
		Encoding:     gatherer.EncodingDER,
		defaultFlags: staticFlags("-lgnutls"),
	},
	{
		Name:         "libgcrypt",
		Kind:         Native,
		KeyFile:      model.ScalarFile,
		NeedsScalar:  true,
		Encoding:     gatherer.EncodingRaw,
		defaultFlags: staticFlags("-lgcrypt", "-lgpg-error"),
	},
	{
		Name:     "py-ecdsa",
		Kind:     Script,
		Runtime:  []string{"python"},
		KeyFile:  model.PrivateKeyPEMFile,
		Encoding: gatherer.EncodingUnknown,
	},
	{
		Name:     "golang",
		Kind:     Managed,
		Runtime:  []string{"go", "run"},
		KeyFile:  model.PrivateKeyPEMFile,
		Encoding: gatherer.EncodingDER,
	},
}

// All returns every registered component in listing order.
func All() []*Component {
	out := make([]*Component, len(registry))
	copy(out, registry)
	return out
}

// Names returns the registered component names in listing order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, c := range registry {
		names = append(names, c.Name)
	}
	return names
}

// Lookup finds a component by name, ignoring case.
func Lookup(name string) (*Component, error) {
	for _, c := range registry {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	names := Names()
	return nil, fmt.Errorf("%w %q: component must be %s, or %s",
		ErrUnknownComponent, name, strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
}

// DefaultGatherer is the gatherer used when the configuration names none.
func (c *Component) DefaultGatherer() string {
	switch c.Kind {
	case Script:
		return DefaultScriptGatherer
	case Managed:
		return DefaultManagedGatherer
	}
	return DefaultNativeGatherer
}

// Flags returns the compiler flags for a native build of cfg.
func (c *Component) Flags(ctx context.Context, runner gatherer.Runner, cfg model.RunConfig) ([]string, error) {
	var defaults []string
	if c.defaultFlags != nil && (len(cfg.CompileFlags) == 0 || cfg.KeepFlags) {
		var err error
		defaults, err = c.defaultFlags(ctx, runner)
		if err != nil {
			return nil, err
		}
	}
	return MergeFlags(cfg.CompileFlags, defaults, cfg.KeepFlags, cfg.Force32Bit), nil
}

// MergeFlags combines user supplied compiler flags with a component's
// defaults. User flags replace the defaults unless keep is set, in which
// case the defaults follow them. force32 appends -m32.
func MergeFlags(user, defaults []string, keep, force32 bool) []string {
	out := append([]string{}, user...)
	if len(user) == 0 || keep {
		out = append(out, defaults...)
	}
	if force32 {
		out = append(out, "-m32")
	}
	return out
}

// Invocation returns the gatherer arguments for a run of cfg.
func (c *Component) Invocation(cfg model.RunConfig) gatherer.Invocation {
	return gatherer.NewInvocation(cfg.OutputDir, c.KeyFile, cfg.SampleSize)
}

// Plan returns the ordered commands that bootstrap, build and run the
// component's gatherer. Key material and the data file must already be
// in cfg.OutputDir when the steps execute.
func (c *Component) Plan(ctx context.Context, runner gatherer.Runner, cfg model.RunConfig) ([]gatherer.Step, error) {
	dir := cfg.OutputDir
	source := cfg.Gatherer
	if source == "" {
		source = c.DefaultGatherer()
	}
	inv := c.Invocation(cfg)

	var steps []gatherer.Step
	if c.bootstrap != nil {
		steps = append(steps, c.bootstrap(dir)...)
	}

	switch c.Kind {
	case Native:
		flags, err := c.Flags(ctx, runner, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve compiler flags for %s: %w", c.Name, err)
		}
		exe := filepath.Join(dir, model.ExecutableFile)
		steps = append(steps,
			gatherer.CompileStep(source, exe, flags),
			gatherer.LinkedLibrariesStep(exe),
			gatherer.RunStep(exe, inv),
		)
	case Script, Managed:
		steps = append(steps, gatherer.RuntimeStep(c.Runtime, source, inv))
	default:
		return nil, fmt.Errorf("component %s has unsupported kind %s", c.Name, c.Kind)
	}
	return steps, nil
}

func (c *Component) String() string {
	return c.Name
}

func staticFlags(flags ...string) func(context.Context, gatherer.Runner) ([]string, error) {
	return func(context.Context, gatherer.Runner) ([]string, error) {
		return append([]string{}, flags...), nil
	}
}
