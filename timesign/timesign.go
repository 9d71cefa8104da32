// Package timesign is a gatherer written in Go. It signs every record of
// an input file and records how long each signature took, following the
// same command line contract as the native gatherers.
package timesign

import (
	"bufio"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/perfgo/timesign/gatherer"
	"github.com/perfgo/timesign/keys"
)

// Signer produces one DER encoded signature over a record.
type Signer interface {
	Sign(record []byte) ([]byte, error)
}

// NewSigner returns the signer for key. The record itself is signed as the
// message digest, as the native gatherers do.
func NewSigner(random io.Reader, key *keys.Key) (Signer, error) {
	if key.Curve.IsSecp256k1() {
		priv, err := key.Secp256k1()
		if err != nil {
			return nil, err
		}
		return secp256k1Signer{key: priv}, nil
	}
	priv, err := key.ECDSA()
	if err != nil {
		return nil, err
	}
	return ecdsaSigner{random: random, key: priv}, nil
}

type ecdsaSigner struct {
	random io.Reader
	key    *ecdsa.PrivateKey
}

func (s ecdsaSigner) Sign(record []byte) ([]byte, error) {
	return ecdsa.SignASN1(s.random, s.key, record)
}

// secp256k1Signer uses RFC 6979 nonces.
type secp256k1Signer struct {
	key *secp256k1.PrivateKey
}

func (s secp256k1Signer) Sign(record []byte) ([]byte, error) {
	return secpecdsa.Sign(s.key, record).Serialize(), nil
}

// Gatherer signs records and measures each signature.
type Gatherer struct {
	Signer     Signer
	RecordSize int
	// Now defaults to time.Now
	Now func() time.Time
}

// Run signs every record read from in, in order, appending the signature
// to sigs and the elapsed nanoseconds as a native-endian uint64 to times.
// It returns the number of records processed. A trailing partial record is
// an error.
func (g *Gatherer) Run(in io.Reader, sigs, times io.Writer) (int, error) {
	if g.RecordSize <= 0 {
		return 0, fmt.Errorf("record size must be positive, got %d", g.RecordSize)
	}
	now := g.Now
	if now == nil {
		now = time.Now
	}

	var (
		reader  = bufio.NewReader(in)
		sigsOut = bufio.NewWriter(sigs)
		timeOut = bufio.NewWriter(times)
		record  = make([]byte, g.RecordSize)
		timing  = make([]byte, 0, gatherer.TimingSize)
		count   int
	)
	for {
		n, err := io.ReadFull(reader, record)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return count, fmt.Errorf("read %d bytes instead of %d (truncated file?)", n, g.RecordSize)
		}
		if err != nil {
			return count, err
		}

		start := now()
		sig, err := g.Signer.Sign(record)
		elapsed := now().Sub(start)
		if err != nil {
			return count, fmt.Errorf("failed to sign record %d: %w", count, err)
		}

		if _, err := sigsOut.Write(sig); err != nil {
			return count, fmt.Errorf("error on writing sigs to file: %w", err)
		}
		timing = binary.NativeEndian.AppendUint64(timing[:0], uint64(elapsed.Nanoseconds()))
		if _, err := timeOut.Write(timing); err != nil {
			return count, fmt.Errorf("error on writing times to file: %w", err)
		}
		count++
	}

	if err := sigsOut.Flush(); err != nil {
		return count, fmt.Errorf("error on writing sigs to file: %w", err)
	}
	if err := timeOut.Flush(); err != nil {
		return count, fmt.Errorf("error on writing times to file: %w", err)
	}
	return count, nil
}

// RunFiles executes a gatherer invocation: it loads the PEM key, signs
// the input file and writes the signatures and timings files.
func RunFiles(inv gatherer.Invocation, random io.Reader) (int, error) {
	if err := inv.Validate(); err != nil {
		return 0, err
	}

	pemData, err := os.ReadFile(inv.Key)
	if err != nil {
		return 0, fmt.Errorf("failed to read key: %w", err)
	}
	key, err := keys.ParsePrivatePEM(pemData)
	if err != nil {
		return 0, err
	}
	signer, err := NewSigner(random, key)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(inv.Input)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	sigs, err := os.Create(inv.Signatures)
	if err != nil {
		return 0, err
	}
	defer sigs.Close()

	times, err := os.Create(inv.Timings)
	if err != nil {
		return 0, err
	}
	defer times.Close()

	g := &Gatherer{Signer: signer, RecordSize: inv.RecordSize}
	count, err := g.Run(in, sigs, times)
	if err != nil {
		return count, err
	}
	if err := sigs.Close(); err != nil {
		return count, err
	}
	return count, times.Close()
}
