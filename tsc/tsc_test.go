package tsc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `[    0.000000] tsc: Fast TSC calibration using PIT
Refined TSC clocksource calibration: 2400.000000 MHz
2500.000000 MHz processor
Detected 2399.999 MHz TSC
tsc: Detected MHz processor without a value
nothing to see here 1.5
`
	samples, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Sample{
		{MHz: 2400, Source: Refined},
		{MHz: 2500, Source: UnrefinedProcessor},
		{MHz: 2399.999, Source: UnrefinedTSC},
	}, samples)
}

func TestParse_FirstDecimalWins(t *testing.T) {
	samples, err := Parse(strings.NewReader("tsc: Refined TSC clocksource calibration: 3192.005 MHz (was 3191.998)\n"))
	require.NoError(t, err)
	require.Equal(t, []Sample{{MHz: 3192.005, Source: Refined}}, samples)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		want    []float64
	}{
		{
			name: "refined wins",
			samples: []Sample{
				{MHz: 2500, Source: UnrefinedProcessor},
				{MHz: 2400, Source: Refined},
				{MHz: 2450, Source: UnrefinedTSC},
			},
			want: []float64{2400},
		},
		{
			name: "tsc over processor",
			samples: []Sample{
				{MHz: 2500, Source: UnrefinedProcessor},
				{MHz: 2450, Source: UnrefinedTSC},
				{MHz: 2460, Source: UnrefinedTSC},
			},
			want: []float64{2450, 2460},
		},
		{
			name: "processor only",
			samples: []Sample{
				{MHz: 2500, Source: UnrefinedProcessor},
			},
			want: []float64{2500},
		},
		{
			name: "none",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Select(tt.samples))
		})
	}
}

func TestMeanAndFormat(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{name: "integral", values: []float64{2400.0}, want: "2400.0"},
		{name: "identity", values: []float64{3000.123456}, want: "3000.123456"},
		{name: "ceil in hz", values: []float64{2400.0, 2400.000002}, want: "2400.000001"},
		{name: "half hz rounds up", values: []float64{2400.0000005}, want: "2400.000001"},
		{name: "average", values: []float64{2500.5, 2500.25}, want: "2500.375"},
		{name: "three values", values: []float64{1999.999999, 2000.000001, 2000.0000005}, want: "2000.000001"},
		{name: "tiny", values: []float64{1e-07}, want: "1e-06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatFrequency(Mean(tt.values)))
		})
	}
}

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{v: 0, want: "0.0"},
		{v: 1, want: "1.0"},
		{v: 0.0001, want: "0.0001"},
		{v: 0.00001, want: "1e-05"},
		{v: 1.5e-05, want: "1.5e-05"},
		{v: 123456789012345.6, want: "123456789012345.6"},
		{v: 1e16, want: "1e+16"},
		{v: 2400.000001, want: "2400.000001"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatFrequency(tt.v))
		})
	}
}

func writeInfo(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, InfoFile), []byte(content), 0644))
	return dir
}

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		want string
	}{
		{
			name: "refined preferred",
			dir: func(t *testing.T) string {
				return writeInfo(t, "Refined TSC clocksource calibration: 2400.000000 MHz", "2500.000000 MHz processor")
			},
			want: "TSC_FREQUENCY=2400.0",
		},
		{
			name: "single tsc value",
			dir:  func(t *testing.T) string { return writeInfo(t, "3000.123456 MHz TSC") },
			want: "TSC_FREQUENCY=3000.123456",
		},
		{
			name: "processor fallback tier",
			dir:  func(t *testing.T) string { return writeInfo(t, "cpu0: 1800.500 MHz processor") },
			want: "TSC_FREQUENCY=1800.5",
		},
		{
			name: "two refined values",
			dir: func(t *testing.T) string {
				return writeInfo(t,
					"Refined TSC clocksource calibration: 2400.0 MHz",
					"Refined TSC clocksource calibration: 2400.000002 MHz")
			},
			want: "TSC_FREQUENCY=2400.000001",
		},
		{
			name: "no frequency lines",
			dir:  func(t *testing.T) string { return writeInfo(t, "hello", "world") },
			want: "TSC_FREQUENCY=1",
		},
		{
			name: "missing file",
			dir:  func(t *testing.T) string { return t.TempDir() },
			want: "TSC_FREQUENCY=1",
		},
		{
			name: "missing directory",
			dir:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") },
			want: "TSC_FREQUENCY=1",
		},
		{
			name: "no directory given",
			dir:  func(t *testing.T) string { return "" },
			want: "TSC_FREQUENCY=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calibrate(tt.dir(t))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
