package randdata

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_ExactLength(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		size    int
	}{
		{name: "tiny unaligned", samples: 3, size: 5},
		{name: "single byte", samples: 1, size: 1},
		{name: "one chunk", samples: ChunkSize / 32, size: 32},
		{name: "chunk plus tail", samples: ChunkSize/32 + 1, size: 32},
		{name: "odd record size", samples: 1001, size: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data")
			n, err := Generate(path, tt.samples, tt.size)
			require.NoError(t, err)
			require.Equal(t, int64(tt.samples*tt.size), n)

			info, err := os.Stat(path)
			require.NoError(t, err)
			require.Equal(t, int64(tt.samples*tt.size), info.Size())
		})
	}
}

func TestGenerate_TailIsAppended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")

	// a deterministic source shows the bytes land in read order
	src := bytes.NewReader([]byte("abcdefghijklmnopq"))
	n, err := generate(path, src, 15, 4)
	require.NoError(t, err)
	require.Equal(t, int64(15), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "abcdefghijklmno", string(data))
}

func TestGenerate_ReplacesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{1}, 100), 0644))

	_, err := generate(path, rand.Reader, 10, 3)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(10), info.Size())
}

func TestGenerate_ZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	n, err := generate(path, rand.Reader, 0, 8)
	require.NoError(t, err)
	require.Zero(t, n)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestGenerate_SourceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	src := io.LimitReader(rand.Reader, 5)

	_, err := generate(path, src, 10, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read random data")
}

func TestGenerate_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "data")
	_, err := Generate(path, 1, 1)
	require.Error(t, err)
}
