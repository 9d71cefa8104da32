package tsc

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Source is the kind of log line a frequency sample was taken from. Lower
// values are preferred.
type Source int

const (
	// Refined is the kernel's refined TSC clocksource calibration
	Refined Source = iota
	// UnrefinedTSC is an early "MHz TSC" estimate
	UnrefinedTSC
	// UnrefinedProcessor is a "MHz processor" estimate
	UnrefinedProcessor
)

func (s Source) String() string {
	switch s {
	case Refined:
		return "refined"
	case UnrefinedTSC:
		return "unrefined-tsc"
	case UnrefinedProcessor:
		return "unrefined-processor"
	}
	return "unknown"
}

// Sample is a frequency read from one log line.
type Sample struct {
	MHz    float64
	Source Source
}

// Keywords are checked in order; a line is classified by the first one it
// contains.
var keywords = []struct {
	text   string
	source Source
}{
	{"Refined TSC clocksource calibration", Refined},
	{"MHz TSC", UnrefinedTSC},
	{"MHz processor", UnrefinedProcessor},
}

var decimalRe = regexp.MustCompile(`\d+\.\d+`)

// maxLineSize bounds a single log line.
const maxLineSize = 1 << 20

// Parse extracts frequency samples from line oriented log output. The
// first decimal number on a matching line is taken as its value in MHz;
// matching lines without one are skipped.
func Parse(reader io.Reader) ([]Sample, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var samples []Sample
	for scanner.Scan() {
		line := scanner.Text()

		for _, kw := range keywords {
			if !strings.Contains(line, kw.text) {
				continue
			}
			if sample, ok := parseLine(line, kw.source); ok {
				samples = append(samples, sample)
			}
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	return samples, nil
}

func parseLine(line string, source Source) (Sample, bool) {
	match := decimalRe.FindString(line)
	if match == "" {
		return Sample{}, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return Sample{}, false
	}
	return Sample{MHz: v, Source: source}, true
}
