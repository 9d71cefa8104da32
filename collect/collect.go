// Package collect runs a complete timing collection: it prepares the
// output directory, key material and input data, then builds and runs the
// component's gatherer and checks what it produced.
package collect

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/perfgo/timesign/component"
	"github.com/perfgo/timesign/gatherer"
	"github.com/perfgo/timesign/keys"
	"github.com/perfgo/timesign/model"
	"github.com/perfgo/timesign/randdata"
)

// Pipeline runs collections. Zero values of Runner and Rand fall back to
// gatherer.ExecRunner and crypto/rand.
type Pipeline struct {
	Logger zerolog.Logger
	Runner gatherer.Runner
	Rand   io.Reader
}

// Outcome describes a finished collection.
type Outcome struct {
	Component *component.Component
	Curve     *keys.Curve
	// KeyFiles are the key artifacts written before the gatherer ran
	KeyFiles []string
	DataSize int64
	Result   gatherer.Result
	// Verified is false when the component's signature encoding is not
	// known and only records and timings were counted
	Verified bool
	Duration time.Duration
}

// Resolve checks cfg and looks up its curve and component. Every error it
// returns is a *model.ConfigError.
func Resolve(cfg model.RunConfig) (*keys.Curve, *component.Component, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	curve, err := keys.LookupCurve(cfg.Curve)
	if err != nil {
		return nil, nil, &model.ConfigError{Err: err}
	}
	comp, err := component.Lookup(cfg.Component)
	if err != nil {
		return nil, nil, &model.ConfigError{Err: err}
	}
	return curve, comp, nil
}

// Run executes the whole collection for cfg. Configuration errors are
// reported before the output directory is touched; any later failure
// aborts the remaining steps.
func (p *Pipeline) Run(ctx context.Context, cfg model.RunConfig) (*Outcome, error) {
	start := time.Now()

	curve, comp, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}
	runner := p.Runner
	if runner == nil {
		runner = gatherer.ExecRunner{}
	}
	random := p.Rand
	if random == nil {
		random = rand.Reader
	}

	logger := p.Logger.With().
		Str("component", comp.Name).
		Str("curve", curve.Name).
		Logger()
	out := &Outcome{Component: comp, Curve: curve}

	logger.Debug().
		Int("samples", cfg.Samples).
		Int("sample_size", cfg.SampleSize).
		Str("output", cfg.OutputDir).
		Msgf("Running for %d samples", cfg.Samples)

	if err := Reset(cfg.OutputDir); err != nil {
		return out, fmt.Errorf("failed to prepare output directory: %w", err)
	}

	logger.Debug().Str("openssl_name", curve.OpenSSLName).Msg("Creating new ECDSA keys")
	key, err := keys.Generate(random, curve)
	if err != nil {
		return out, fmt.Errorf("failed to generate key: %w", err)
	}
	out.KeyFiles, err = keys.Write(cfg.OutputDir, key, comp.NeedsScalar)
	if err != nil {
		return out, err
	}

	logger.Debug().Int64("bytes", cfg.DataSize()).Msg("Generating data")
	out.DataSize, err = randdata.Generate(filepath.Join(cfg.OutputDir, model.DataFile), cfg.Samples, cfg.SampleSize)
	if err != nil {
		return out, fmt.Errorf("failed to generate data: %w", err)
	}

	steps, err := comp.Plan(ctx, runner, cfg)
	if err != nil {
		return out, err
	}
	logger.Debug().Int("steps", len(steps)).Msg("Signing data")
	if err := gatherer.Execute(ctx, runner, logger, steps); err != nil {
		return out, err
	}

	out.Result, err = gatherer.Verify(comp.Invocation(cfg), comp.Encoding, curve.ByteLen, cfg.Samples)
	switch {
	case errors.Is(err, gatherer.ErrUnknownEncoding):
		logger.Debug().Msg("Signature encoding unknown, skipping signature count")
	case err != nil:
		return out, err
	default:
		out.Verified = true
	}

	out.Duration = time.Since(start)
	logger.Info().
		Int("records", out.Result.Records).
		Int("timings", out.Result.Timings).
		Bool("verified", out.Verified).
		Dur("duration", out.Duration).
		Msg("Collection finished")
	return out, nil
}

// Reset makes dir an empty directory, creating it if needed. Entries that
// cannot be removed are skipped.
func Reset(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		_ = os.RemoveAll(filepath.Join(dir, entry.Name()))
	}
	return nil
}
