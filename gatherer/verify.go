package gatherer

// verify.go checks the index alignment of a finished run: one signature
// and one timing per input record.

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// TimingSize is the size of one timing record: a native-endian uint64.
const TimingSize = 8

// ErrResultMismatch is returned when the gatherer output does not line up
// with its input.
var ErrResultMismatch = errors.New("gatherer output does not match input")

// ErrUnknownEncoding is returned by Verify when signatures cannot be
// counted for the backend.
var ErrUnknownEncoding = errors.New("signature encoding unknown")

// Encoding is the layout of a backend's signatures file.
type Encoding int

const (
	// EncodingUnknown means signatures cannot be counted
	EncodingUnknown Encoding = iota
	// EncodingDER is a sequence of DER encoded ECDSA-Sig-Value structures
	EncodingDER
	// EncodingRaw is a sequence of fixed width r||s pairs
	EncodingRaw
)

func (e Encoding) String() string {
	switch e {
	case EncodingDER:
		return "der"
	case EncodingRaw:
		return "raw"
	}
	return "unknown"
}

// Result holds the record counts of a finished run.
type Result struct {
	Records    int
	Signatures int
	Timings    int
}

// Verify counts input records, signatures and timings and checks that
// they all equal samples. scalarLen is the width of r and s for
// EncodingRaw. EncodingUnknown returns ErrUnknownEncoding after counting
// records and timings.
func Verify(inv Invocation, enc Encoding, scalarLen, samples int) (Result, error) {
	var res Result

	records, err := countFixed(inv.Input, int64(inv.RecordSize))
	if err != nil {
		return res, fmt.Errorf("failed to count input records: %w", err)
	}
	res.Records = records

	timings, err := countFixed(inv.Timings, TimingSize)
	if err != nil {
		return res, fmt.Errorf("failed to count timings: %w", err)
	}
	res.Timings = timings

	switch enc {
	case EncodingDER:
		res.Signatures, err = countDER(inv.Signatures)
	case EncodingRaw:
		res.Signatures, err = countFixed(inv.Signatures, int64(2*scalarLen))
	default:
		return res, ErrUnknownEncoding
	}
	if err != nil {
		return res, fmt.Errorf("failed to count signatures: %w", err)
	}

	if res.Records != samples || res.Signatures != samples || res.Timings != samples {
		return res, fmt.Errorf("%w: expected %d, got %d records, %d signatures, %d timings",
			ErrResultMismatch, samples, res.Records, res.Signatures, res.Timings)
	}
	return res, nil
}

func countFixed(path string, size int64) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("invalid record size %d", size)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.Size()%size != 0 {
		return 0, fmt.Errorf("%w: %s is %d bytes, not a multiple of %d",
			ErrResultMismatch, info.Name(), info.Size(), size)
	}
	return int(info.Size() / size), nil
}

// countDER walks a concatenation of DER signatures without loading the
// whole file.
func countDER(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	count := 0
	for {
		elem, err := readDERElement(r)
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("signature %d: %w", count, err)
		}
		if err := checkSignature(elem); err != nil {
			return count, fmt.Errorf("signature %d: %w", count, err)
		}
		count++
	}
}

// maxSignatureLen bounds a single element; ECDSA signatures on the
// supported curves are well below it.
const maxSignatureLen = 1 << 12

func readDERElement(r *bufio.Reader) ([]byte, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if tag != byte(cbasn1.SEQUENCE) {
		return nil, fmt.Errorf("%w: unexpected tag 0x%02x", ErrResultMismatch, tag)
	}
	lenByte, err := r.ReadByte()
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}

	header := []byte{tag, lenByte}
	length := int(lenByte)
	if lenByte&0x80 != 0 {
		n := int(lenByte & 0x7f)
		if n == 0 || n > 2 {
			return nil, fmt.Errorf("%w: unsupported length encoding", ErrResultMismatch)
		}
		length = 0
		for i := 0; i < n; i++ {
			b, err := r.ReadByte()
			if err != nil {
				return nil, io.ErrUnexpectedEOF
			}
			header = append(header, b)
			length = length<<8 | int(b)
		}
	}
	if length > maxSignatureLen {
		return nil, fmt.Errorf("%w: element of %d bytes", ErrResultMismatch, length)
	}

	elem := make([]byte, len(header)+length)
	copy(elem, header)
	if _, err := io.ReadFull(r, elem[len(header):]); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return elem, nil
}

func checkSignature(elem []byte) error {
	var (
		input = cryptobyte.String(elem)
		seq   cryptobyte.String
		r, s  = new(big.Int), new(big.Int)
	)
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) ||
		!seq.ReadASN1Integer(r) ||
		!seq.ReadASN1Integer(s) ||
		!seq.Empty() {
		return fmt.Errorf("%w: malformed ECDSA signature", ErrResultMismatch)
	}
	return nil
}
