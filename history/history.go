package history

// This file contains shared history utilities for finding and parsing the
// run.json manifests of previous collection runs.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/perfgo/timesign/model"
)

type Entry struct {
	Run      model.Run
	FullPath string
}

// LoadEntries loads every run manifest below root, newest first. A
// directory holding a manifest is not descended into.
func LoadEntries(logger zerolog.Logger, root string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		manifestPath := filepath.Join(path, model.ManifestFile)
		if _, err := os.Stat(manifestPath); err != nil {
			return nil
		}

		run, err := ParseManifest(manifestPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", manifestPath).Msg("Failed to parse run manifest")
			return filepath.SkipDir
		}
		entries = append(entries, Entry{
			Run:      run,
			FullPath: path,
		})
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Run.Timestamp.After(entries[j].Run.Timestamp)
	})
	return entries, nil
}

// ParseManifest parses a run.json file.
func ParseManifest(path string) (model.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Run{}, err
	}

	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return model.Run{}, err
	}
	return run, nil
}
