// Package tsc turns the frequency estimates found in a processor log into
// one calibrated timestamp counter frequency.
package tsc

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// InfoFile is the log read from the calibration directory.
const InfoFile = "processor-info"

// Key is the name of the emitted variable.
const Key = "TSC_FREQUENCY"

// Fallback is emitted when no frequency can be determined.
const Fallback = Key + "=1"

// Select returns the values of the most trusted source present in
// samples, or nil when there are none.
func Select(samples []Sample) []float64 {
	for _, source := range []Source{Refined, UnrefinedTSC, UnrefinedProcessor} {
		var values []float64
		for _, s := range samples {
			if s.Source == source {
				values = append(values, s.MHz)
			}
		}
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

// Mean averages MHz values in whole Hz: the values are scaled to Hz and
// summed in order, the sum is divided by the count and rounded up, and the
// result is scaled back to MHz. The order of these operations determines
// the printed value and must not change.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		// The conversion keeps the product from being fused into the sum.
		total += float64(v * 1e6)
	}
	return math.Ceil(total/float64(len(values))) / 1e6
}

// FormatFrequency prints v the way the calibration consumers expect:
// the shortest representation that round-trips, in positional notation
// for exponents from -4 to 15 (always with a fractional part) and in
// exponent notation otherwise.
func FormatFrequency(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	exp := 0
	if v != 0 {
		sci := strconv.FormatFloat(v, 'e', -1, 64)
		exp, _ = strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	}
	if exp < -4 || exp >= 16 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Calibrate reads InfoFile from dir and returns the KEY=value line. A
// missing directory or file, an empty dir argument and a log without any
// recognized frequency all produce Fallback.
func Calibrate(dir string) (string, error) {
	if dir == "" {
		return Fallback, nil
	}

	f, err := os.Open(filepath.Join(dir, InfoFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Fallback, nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	samples, err := Parse(f)
	if err != nil {
		return "", err
	}

	values := Select(samples)
	if len(values) == 0 {
		return Fallback, nil
	}
	return Key + "=" + FormatFrequency(Mean(values)), nil
}
