package cli

// This file contains the list command for displaying previous collection
// runs.

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/timesign/history"
)

func (a *App) list(ctx *cli.Context) error {
	root := ctx.Args().First()
	if root == "" {
		root = "."
	}
	filterComponent := ctx.String("component")
	limit := ctx.Int("limit")

	// Load all history entries, newest first
	historyEntries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	// Apply component filter if specified
	var filteredEntries []history.Entry
	for _, entry := range historyEntries {
		if filterComponent == "" || strings.EqualFold(entry.Run.Config.Component, filterComponent) {
			filteredEntries = append(filteredEntries, entry)
		}
	}

	if len(filteredEntries) == 0 {
		if filterComponent != "" {
			fmt.Fprintf(a.out, "No runs found for component: %s\n", filterComponent)
		} else {
			fmt.Fprintln(a.out, "No runs found")
		}
		return nil
	}

	// Apply limit
	displayRuns := filteredEntries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Fprintf(a.out, "\n=== Runs (%d total) ===\n\n", len(filteredEntries))

	for _, entry := range displayRuns {
		r := entry.Run
		timestamp := r.Timestamp.Format("2006-01-02 15:04:05")

		// Format duration
		duration := r.Duration.Round(time.Millisecond)

		// Determine status indicator
		status := "✓"
		if r.ExitCode != 0 {
			status = "✗"
		}

		fmt.Fprintf(a.out, "%s  %s  [%s]  exit=%d  id=%s\n", status, timestamp, duration, r.ExitCode, shortID(r.ID))
		fmt.Fprintf(a.out, "   Component: %s  Curve: %s  Samples: %d x %d bytes\n",
			r.Config.Component, r.Config.Curve, r.Config.Samples, r.Config.SampleSize)
		if r.Target != nil && r.Target.OS != "" && r.Target.Arch != "" {
			fmt.Fprintf(a.out, "   Host: %s (%s/%s)\n", r.Target.Hostname, r.Target.OS, r.Target.Arch)
		}
		if r.Gatherer != nil && r.Gatherer.Commit != "" {
			fmt.Fprintf(a.out, "   Gatherer: %s @ %s", r.Gatherer.Path, shortID(r.Gatherer.Commit))
			if r.Gatherer.Branch != "" {
				fmt.Fprintf(a.out, " (%s)", r.Gatherer.Branch)
			}
			fmt.Fprintln(a.out)
		}
		if r.Error != "" {
			fmt.Fprintf(a.out, "   Error: %s\n", r.Error)
		}
		fmt.Fprintf(a.out, "   %s\n", entry.FullPath)
		fmt.Fprintln(a.out)
	}

	fmt.Fprintln(a.out, "View run details: timesign view <ID>")

	return nil
}

// shortID returns the first 8 characters of an ID or commit.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
