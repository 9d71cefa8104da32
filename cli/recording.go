package cli

// This file contains run recording functionality: the run.json manifest
// written into the output directory once a collection run ends.

import (
	"context"
	"crypto/sha256"
	"encoding/base32"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perfgo/timesign/collect"
	"github.com/perfgo/timesign/model"
)

func (a *App) recordRun(ctx context.Context, cfg model.RunConfig, startTime time.Time, outcome *collect.Outcome, runErr error) error {
	run := &model.Run{
		ID:        uuid.NewString(),
		Timestamp: startTime,
		Config:    cfg,
		Duration:  time.Since(startTime),
		Target:    targetInfo(),
	}
	if runErr != nil {
		run.ExitCode = 1
		run.Error = runErr.Error()
	}

	if outcome != nil && outcome.Component != nil {
		path := cfg.Gatherer
		if path == "" {
			path = outcome.Component.DefaultGatherer()
		}
		run.Gatherer = a.gathererInfo(ctx, path)
	}
	if outcome != nil && runErr == nil {
		run.Result = &model.Result{
			Records:    outcome.Result.Records,
			Signatures: outcome.Result.Signatures,
			Timings:    outcome.Result.Timings,
			Verified:   outcome.Verified,
		}
	}

	artifacts, err := a.collectArtifacts(cfg.OutputDir)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to list some artifacts")
		// Don't fail the run on artifact errors
	}
	run.Artifacts = artifacts

	manifestJSON, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run manifest: %w", err)
	}
	manifestPath := filepath.Join(cfg.OutputDir, model.ManifestFile)
	if err := os.WriteFile(manifestPath, manifestJSON, 0644); err != nil {
		return fmt.Errorf("failed to write run manifest: %w", err)
	}

	a.logger.Debug().Str("dir", cfg.OutputDir).Str("id", run.ID).Msg("Recorded run")
	return nil
}

func targetInfo() *model.Target {
	hostname, _ := os.Hostname()
	return &model.Target{
		Hostname: hostname,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		NumCPU:   runtime.NumCPU(),
	}
}

// collectArtifacts lists the known artifacts present in dir. Public keys
// and the gatherer executable are hashed.
func (a *App) collectArtifacts(dir string) ([]model.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var artifacts []model.Artifact
	var firstErr error
	for _, entry := range entries {
		typ, ok := model.KnownArtifacts[entry.Name()]
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		size, err := artifactSize(path)
		if err != nil {
			a.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to stat artifact")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		artifact := model.Artifact{Type: typ, Size: size, File: entry.Name()}

		if typ == model.ArtifactTypePublicKey || typ == model.ArtifactTypeExecutable {
			hash, err := hashFile(path)
			if err != nil {
				a.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to hash artifact")
			} else {
				artifact.Hash = hash
			}
		}

		artifacts = append(artifacts, artifact)
		a.logger.Debug().
			Str("file", artifact.File).
			Str("type", typ.String()).
			Uint64("size", size).
			Msg("Registered artifact")
	}
	return artifacts, firstErr
}

// artifactSize is the file size, or the total size of a directory.
func artifactSize(path string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	return total, err
}

// hashFile returns the lower case, unpadded base32 SHA256 of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(h.Sum(nil))), nil
}
