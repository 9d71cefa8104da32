package randdata

// randdata.go writes the bulk random input that the gatherers sign.

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the size of the blocks drawn from the random source.
const ChunkSize = 1 << 20

// Generate writes exactly samples*size bytes from crypto/rand to path,
// replacing any previous content. It returns the number of bytes written.
func Generate(path string, samples, size int) (int64, error) {
	total := int64(samples) * int64(size)
	return generate(path, rand.Reader, total, ChunkSize)
}

func generate(path string, src io.Reader, total int64, chunk int) (int64, error) {
	if total < 0 {
		return 0, fmt.Errorf("invalid data size %d", total)
	}
	if chunk <= 0 {
		return 0, fmt.Errorf("invalid chunk size %d", chunk)
	}

	full := total / int64(chunk)
	rest := int(total % int64(chunk))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create data file: %w", err)
	}
	written, err := copyChunks(f, src, full, chunk)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return written, err
	}

	if rest == 0 {
		return written, nil
	}

	// The tail is appended, never written over the bulk part.
	f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return written, fmt.Errorf("failed to reopen data file: %w", err)
	}
	n, err := copyChunks(f, src, 1, rest)
	written += n
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return written, err
}

func copyChunks(w io.Writer, src io.Reader, count int64, chunk int) (int64, error) {
	buf := make([]byte, chunk)
	var written int64
	for i := int64(0); i < count; i++ {
		if _, err := io.ReadFull(src, buf); err != nil {
			return written, fmt.Errorf("failed to read random data: %w", err)
		}
		n, err := w.Write(buf)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write data: %w", err)
		}
	}
	return written, nil
}
