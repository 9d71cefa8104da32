package cli

// This file contains Git integration utilities for recording which
// revision of a gatherer produced a run.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/perfgo/timesign/model"
)

func (a *App) gathererInfo(ctx context.Context, path string) *model.Gatherer {
	g := &model.Gatherer{Path: path}

	dir := path
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}

	commit, branch, err := a.getGitInfo(ctx, dir)
	if err != nil {
		a.logger.Debug().Err(err).Str("gatherer", path).Msg("No git information for gatherer")
		return g
	}
	g.Commit = commit
	g.Branch = branch
	return g
}

func (a *App) getGitInfo(ctx context.Context, dir string) (commit, branch string, err error) {
	// Get current commit hash
	output, err := a.git.Output(ctx, "git", "-C", dir, "rev-parse", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git commit: %w", err)
	}
	commit = strings.TrimSpace(output)

	// Get current branch
	output, err = a.git.Output(ctx, "git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git branch: %w", err)
	}
	branch = strings.TrimSpace(output)

	return commit, branch, nil
}
