package timesign

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"os"
	"testing"
	"time"

	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/timesign/gatherer"
	"github.com/perfgo/timesign/keys"
	"github.com/perfgo/timesign/model"
	"github.com/perfgo/timesign/randdata"
)

func prepareRun(t *testing.T, curveName string, samples, size int) (gatherer.Invocation, *keys.Key) {
	t.Helper()
	dir := t.TempDir()

	curve, err := keys.LookupCurve(curveName)
	require.NoError(t, err)
	key, err := keys.Generate(rand.Reader, curve)
	require.NoError(t, err)
	_, err = keys.Write(dir, key, false)
	require.NoError(t, err)

	inv := gatherer.NewInvocation(dir, model.PrivateKeyPEMFile, size)
	_, err = randdata.Generate(inv.Input, samples, size)
	require.NoError(t, err)
	return inv, key
}

func TestRunFiles_OutputIsIndexAligned(t *testing.T) {
	tests := []struct {
		curve   string
		samples int
		size    int
	}{
		{curve: "NIST256p", samples: 17, size: 32},
		{curve: "NIST384p", samples: 5, size: 48},
		{curve: "NIST521p", samples: 3, size: 5},
		{curve: "NIST192p", samples: 4, size: 24},
		{curve: "SECP256k1", samples: 9, size: 32},
	}

	for _, tt := range tests {
		t.Run(tt.curve, func(t *testing.T) {
			inv, key := prepareRun(t, tt.curve, tt.samples, tt.size)

			count, err := RunFiles(inv, rand.Reader)
			require.NoError(t, err)
			require.Equal(t, tt.samples, count)

			res, err := gatherer.Verify(inv, gatherer.EncodingDER, key.Curve.ByteLen, tt.samples)
			require.NoError(t, err)
			require.Equal(t, gatherer.Result{Records: tt.samples, Signatures: tt.samples, Timings: tt.samples}, res)
		})
	}
}

func TestRunFiles_SignaturesVerify(t *testing.T) {
	inv, key := prepareRun(t, "NIST256p", 1, 32)
	_, err := RunFiles(inv, rand.Reader)
	require.NoError(t, err)

	record, err := os.ReadFile(inv.Input)
	require.NoError(t, err)
	sig, err := os.ReadFile(inv.Signatures)
	require.NoError(t, err)

	priv, err := key.ECDSA()
	require.NoError(t, err)
	require.True(t, ecdsa.VerifyASN1(&priv.PublicKey, record, sig))
}

func TestRunFiles_Secp256k1SignaturesVerify(t *testing.T) {
	inv, key := prepareRun(t, "SECP256k1", 1, 32)
	_, err := RunFiles(inv, rand.Reader)
	require.NoError(t, err)

	record, err := os.ReadFile(inv.Input)
	require.NoError(t, err)
	der, err := os.ReadFile(inv.Signatures)
	require.NoError(t, err)

	sig, err := secpecdsa.ParseDERSignature(der)
	require.NoError(t, err)
	priv, err := key.Secp256k1()
	require.NoError(t, err)
	require.True(t, sig.Verify(record, priv.PubKey()))
}

func TestRunFiles_MissingParameters(t *testing.T) {
	inv, _ := prepareRun(t, "NIST256p", 1, 32)
	inv.Timings = ""
	_, err := RunFiles(inv, rand.Reader)
	require.ErrorContains(t, err, "missing parameters")
}

type fixedSigner struct {
	sig []byte
	err error
}

func (s fixedSigner) Sign([]byte) ([]byte, error) {
	return s.sig, s.err
}

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestGatherer_Run(t *testing.T) {
	g := &Gatherer{
		Signer:     fixedSigner{sig: []byte{0xAA, 0xBB}},
		RecordSize: 4,
		Now:        stepClock(250 * time.Nanosecond),
	}

	var sigs, times bytes.Buffer
	count, err := g.Run(bytes.NewReader(make([]byte, 12)), &sigs, &times)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Equal(t, bytes.Repeat([]byte{0xAA, 0xBB}, 3), sigs.Bytes())

	require.Equal(t, 3*gatherer.TimingSize, times.Len())
	for i := 0; i < 3; i++ {
		v := binary.NativeEndian.Uint64(times.Bytes()[i*gatherer.TimingSize:])
		require.Equal(t, uint64(250), v)
	}
}

func TestGatherer_Run_Errors(t *testing.T) {
	tests := []struct {
		name    string
		g       *Gatherer
		input   []byte
		count   int
		wantErr string
	}{
		{
			name:    "truncated input",
			g:       &Gatherer{Signer: fixedSigner{sig: []byte{1}}, RecordSize: 4},
			input:   make([]byte, 10),
			count:   2,
			wantErr: "read 2 bytes instead of 4",
		},
		{
			name:    "signer failure",
			g:       &Gatherer{Signer: fixedSigner{err: errors.New("no entropy")}, RecordSize: 4},
			input:   make([]byte, 8),
			count:   0,
			wantErr: "failed to sign record 0: no entropy",
		},
		{
			name:    "invalid record size",
			g:       &Gatherer{Signer: fixedSigner{}, RecordSize: 0},
			input:   make([]byte, 8),
			wantErr: "record size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sigs, times bytes.Buffer
			count, err := tt.g.Run(bytes.NewReader(tt.input), &sigs, &times)
			require.ErrorContains(t, err, tt.wantErr)
			require.Equal(t, tt.count, count)
		})
	}
}

func TestGatherer_Run_EmptyInput(t *testing.T) {
	g := &Gatherer{Signer: fixedSigner{sig: []byte{1}}, RecordSize: 32}
	var sigs, times bytes.Buffer
	count, err := g.Run(bytes.NewReader(nil), &sigs, &times)
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, sigs.Len())
}
