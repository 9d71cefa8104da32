package cli

// This file contains the collect command: it turns flags and an optional
// config file into a run configuration and hands it to the pipeline.

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/timesign/collect"
	"github.com/perfgo/timesign/model"
)

func (a *App) runCollect(ctx *cli.Context) error {
	if ctx.Bool("list-components") {
		return a.components(ctx)
	}

	cfg, err := runConfig(ctx)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	pipeline := &collect.Pipeline{
		Logger: a.logger,
		Runner: a.runner,
	}
	outcome, runErr := pipeline.Run(sigCtx, cfg)

	var cfgErr *model.ConfigError
	if errors.As(runErr, &cfgErr) {
		return runErr
	}

	if err := a.recordRun(sigCtx, cfg, startTime, outcome, runErr); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to write run manifest")
	}
	return runErr
}

// runConfig builds the run configuration: defaults, then the config file,
// then every flag set on the command line.
func runConfig(ctx *cli.Context) (model.RunConfig, error) {
	cfg := model.DefaultRunConfig()

	if path := ctx.String("config"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, &model.ConfigError{Err: fmt.Errorf("failed to read config file %s: %w", path, err)}
		}
	}

	if ctx.Args().Present() {
		return cfg, &model.ConfigError{Err: fmt.Errorf("unexpected arguments: %s", strings.Join(ctx.Args().Slice(), " "))}
	}

	if ctx.IsSet("output") {
		cfg.OutputDir = ctx.String("output")
	}
	if ctx.IsSet("curve") {
		cfg.Curve = ctx.String("curve")
	}
	if ctx.IsSet("samples") {
		cfg.Samples = ctx.Int("samples")
	}
	if ctx.IsSet("size") {
		cfg.SampleSize = ctx.Int("size")
	}
	if ctx.IsSet("component") {
		cfg.Component = ctx.String("component")
	}
	if ctx.IsSet("gatherer") {
		cfg.Gatherer = ctx.String("gatherer")
	}
	if ctx.IsSet("gcc-flags") {
		cfg.CompileFlags = strings.Fields(ctx.String("gcc-flags"))
	}
	if ctx.IsSet("keep-flags") {
		cfg.KeepFlags = ctx.Bool("keep-flags")
	}
	if ctx.IsSet("run-in-32") {
		cfg.Force32Bit = ctx.Bool("run-in-32")
	}
	cfg.Component = strings.ToLower(cfg.Component)

	return cfg, nil
}
