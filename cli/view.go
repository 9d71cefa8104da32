package cli

// This file contains the view command for displaying a single run.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/timesign/history"
)

func parseViewArgs(in []string) (idArg, root string) {
	idArg, root = "0", "."
	if len(in) > 0 && in[0] != "" {
		idArg = in[0]
	}
	if len(in) > 1 && in[1] != "" {
		root = in[1]
	}
	return idArg, root
}

// selectEntry picks an entry from a newest first list: 0 or a negative
// index counts back from the newest run, anything else is an ID prefix.
func selectEntry(entries []history.Entry, arg string) (*history.Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no runs found")
	}

	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
		// It's a number
		if parsed > 0 {
			// Positive integers are not allowed
			return nil, fmt.Errorf("invalid index: %s (use 0 for the newest run, -1 for the one before, etc.)", arg)
		}
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d runs)", arg, len(entries))
		}
		return &entries[index], nil
	}

	// Treat as ID prefix
	prefix := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].Run.ID), prefix) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no run found matching ID: %s", arg)
}

func (a *App) view(ctx *cli.Context) error {
	arg, root := parseViewArgs(ctx.Args().Slice())

	historyEntries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := selectEntry(historyEntries, arg)
	if err != nil {
		return err
	}
	a.displayRun(entry)
	return nil
}

func (a *App) displayRun(entry *history.Entry) {
	r := entry.Run
	cfg := r.Config

	// Print header
	fmt.Fprintf(a.out, "=== Run: %s ===\n", shortID(r.ID))
	fmt.Fprintf(a.out, "Time: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Duration: %s\n", r.Duration)
	fmt.Fprintf(a.out, "Exit Code: %d\n", r.ExitCode)
	if r.Error != "" {
		fmt.Fprintf(a.out, "Error: %s\n", r.Error)
	}
	fmt.Fprintf(a.out, "Component: %s\n", cfg.Component)
	fmt.Fprintf(a.out, "Curve: %s\n", cfg.Curve)
	fmt.Fprintf(a.out, "Samples: %d x %d bytes\n", cfg.Samples, cfg.SampleSize)
	if len(cfg.CompileFlags) > 0 {
		fmt.Fprintf(a.out, "Compiler Flags: %s", strings.Join(cfg.CompileFlags, " "))
		if cfg.KeepFlags {
			fmt.Fprint(a.out, " (+ defaults)")
		}
		fmt.Fprintln(a.out)
	}
	if cfg.Force32Bit {
		fmt.Fprintln(a.out, "Target: 32 bit")
	}
	if r.Gatherer != nil {
		fmt.Fprintf(a.out, "Gatherer: %s", r.Gatherer.Path)
		if r.Gatherer.Commit != "" {
			fmt.Fprintf(a.out, " @ %s", shortID(r.Gatherer.Commit))
			if r.Gatherer.Branch != "" {
				fmt.Fprintf(a.out, " (%s)", r.Gatherer.Branch)
			}
		}
		fmt.Fprintln(a.out)
	}
	if r.Target != nil {
		fmt.Fprintf(a.out, "Host: %s (%s/%s, %d CPUs)\n", r.Target.Hostname, r.Target.OS, r.Target.Arch, r.Target.NumCPU)
	}
	if r.Result != nil {
		verified := "verified"
		if !r.Result.Verified {
			verified = "signatures not counted"
		}
		fmt.Fprintf(a.out, "Result: %d records, %d signatures, %d timings (%s)\n",
			r.Result.Records, r.Result.Signatures, r.Result.Timings, verified)
	}
	fmt.Fprintln(a.out)

	if len(r.Artifacts) == 0 {
		fmt.Fprintln(a.out, "No artifacts recorded")
	}
	for _, artifact := range r.Artifacts {
		fmt.Fprintf(a.out, "  %-12s %-14s %10.1f KB", artifact.Type, artifact.File, float64(artifact.Size)/1024)
		if artifact.Hash != "" {
			fmt.Fprintf(a.out, "  %s", artifact.Hash)
		}
		fmt.Fprintln(a.out)
	}
	fmt.Fprintf(a.out, "\nRun directory: %s\n", entry.FullPath)
}
