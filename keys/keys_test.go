package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perfgo/timesign/model"
)

func TestLookupCurve(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "canonical", in: "NIST256p", want: "NIST256p"},
		{name: "lower case", in: "nist384p", want: "NIST384p"},
		{name: "nist alias", in: "P-521", want: "NIST521p"},
		{name: "openssl alias", in: "prime256v1", want: "NIST256p"},
		{name: "koblitz", in: "secp256k1", want: "SECP256k1"},
		{name: "p192", in: "NIST192p", want: "NIST192p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LookupCurve(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, c.Name)
		})
	}
}

func TestLookupCurve_Unknown(t *testing.T) {
	_, err := LookupCurve("BRAINPOOLP999r1")
	require.ErrorIs(t, err, ErrUnsupportedCurve)
	require.Contains(t, err.Error(), "BRAINPOOLP999r1")
}

func TestGcryptName(t *testing.T) {
	want := map[string]string{
		"NIST192p":  "NIST P-192",
		"NIST224p":  "NIST P-224",
		"NIST256p":  "NIST P-256",
		"NIST384p":  "NIST P-384",
		"NIST521p":  "NIST P-521",
		"SECP256k1": "SECP256k1",
	}
	for _, c := range Curves() {
		require.Equal(t, want[c.Name], c.GcryptName(), c.Name)
	}
}

func TestCurve_IsOnCurve(t *testing.T) {
	for _, curve := range Curves() {
		t.Run(curve.Name, func(t *testing.T) {
			params := curve.Params()
			require.True(t, curve.IsOnCurve(params.Gx, params.Gy))

			offY := new(big.Int).Add(params.Gy, big.NewInt(1))
			require.False(t, curve.IsOnCurve(params.Gx, offY))
		})
	}
}

func TestWrite_AllFormatsDecodeToSameKey(t *testing.T) {
	for _, curve := range Curves() {
		t.Run(curve.Name, func(t *testing.T) {
			dir := t.TempDir()

			key, err := Generate(rand.Reader, curve)
			require.NoError(t, err)
			require.Len(t, key.D, curve.ByteLen)
			require.Len(t, key.Public, 1+2*curve.ByteLen)

			x, y := key.Point()
			require.True(t, curve.IsOnCurve(x, y))

			written, err := Write(dir, key, true)
			require.NoError(t, err)
			require.Equal(t, []string{
				model.PrivateKeyPEMFile,
				model.PrivateKeyDERFile,
				model.PublicKeyPEMFile,
				model.PublicKeyDERFile,
				model.ScalarFile,
			}, written)

			privPEM := readFile(t, dir, model.PrivateKeyPEMFile)
			fromPEM, err := ParsePrivatePEM(privPEM)
			require.NoError(t, err)
			require.Equal(t, key.D, fromPEM.D)
			require.Equal(t, key.Public, fromPEM.Public)

			fromDER, err := ParsePKCS8(readFile(t, dir, model.PrivateKeyDERFile))
			require.NoError(t, err)
			require.Equal(t, key.D, fromDER.D)

			block, _ := pem.Decode(readFile(t, dir, model.PublicKeyPEMFile))
			require.NotNil(t, block)
			require.Equal(t, "PUBLIC KEY", block.Type)
			pubCurve, point, err := ParsePKIX(block.Bytes)
			require.NoError(t, err)
			require.Equal(t, curve, pubCurve)
			require.Equal(t, key.Public, point)

			_, point, err = ParsePKIX(readFile(t, dir, model.PublicKeyDERFile))
			require.NoError(t, err)
			require.Equal(t, key.Public, point)

			fromScalar, err := ParseScalarDescriptor(readFile(t, dir, model.ScalarFile))
			require.NoError(t, err)
			require.Equal(t, fromPEM.Scalar(), fromScalar.Scalar())
			require.Equal(t, key.Public, fromScalar.Public)
		})
	}
}

func TestWrite_CompatibleWithCryptoX509(t *testing.T) {
	for _, name := range []string{"NIST224p", "NIST256p", "NIST384p", "NIST521p"} {
		t.Run(name, func(t *testing.T) {
			curve, err := LookupCurve(name)
			require.NoError(t, err)
			key, err := Generate(rand.Reader, curve)
			require.NoError(t, err)

			der, err := key.MarshalPKCS8()
			require.NoError(t, err)
			parsed, err := x509.ParsePKCS8PrivateKey(der)
			require.NoError(t, err)
			priv, ok := parsed.(*ecdsa.PrivateKey)
			require.True(t, ok)
			require.Equal(t, 0, priv.D.Cmp(key.Scalar()))

			pubDER, err := key.MarshalPKIX()
			require.NoError(t, err)
			parsedPub, err := x509.ParsePKIXPublicKey(pubDER)
			require.NoError(t, err)
			pub, ok := parsedPub.(*ecdsa.PublicKey)
			require.True(t, ok)
			require.True(t, pub.Equal(&priv.PublicKey))

			// and the other way around
			stdDER, err := x509.MarshalPKCS8PrivateKey(priv)
			require.NoError(t, err)
			back, err := ParsePKCS8(stdDER)
			require.NoError(t, err)
			require.Equal(t, key.D, back.D)
		})
	}
}

func TestWrite_WithoutScalar(t *testing.T) {
	dir := t.TempDir()
	curve, err := LookupCurve("NIST256p")
	require.NoError(t, err)
	key, err := Generate(rand.Reader, curve)
	require.NoError(t, err)

	written, err := Write(dir, key, false)
	require.NoError(t, err)
	require.Len(t, written, 4)

	_, err = os.Stat(filepath.Join(dir, model.ScalarFile))
	require.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 4, "no temporary files are left behind")
}

func TestScalarDescriptor_FixedWidth(t *testing.T) {
	curve, err := LookupCurve("NIST256p")
	require.NoError(t, err)
	key, err := NewKey(curve, []byte{0x01, 0x02})
	require.NoError(t, err)

	want := "curve=NIST P-256\n" +
		"d=" + strings.Repeat("0", 60) + "0102\n" +
		"b=32\n"
	require.Equal(t, want, string(key.ScalarDescriptor()))
}

func TestNewKey_OutOfRange(t *testing.T) {
	curve, err := LookupCurve("NIST256p")
	require.NoError(t, err)

	_, err = NewKey(curve, []byte{0})
	require.Error(t, err)

	_, err = NewKey(curve, curve.Params().N.Bytes())
	require.Error(t, err)

	_, err = NewKey(curve, make([]byte, 33))
	require.Error(t, err)
}

func TestKey_Sign(t *testing.T) {
	digest := sha256.Sum256([]byte("record"))

	curve, err := LookupCurve("NIST256p")
	require.NoError(t, err)
	key, err := Generate(rand.Reader, curve)
	require.NoError(t, err)
	priv, err := key.ECDSA()
	require.NoError(t, err)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)
	require.True(t, ecdsa.VerifyASN1(&priv.PublicKey, digest[:], sig))

	_, err = key.Secp256k1()
	require.Error(t, err)

	k1, err := LookupCurve("SECP256k1")
	require.NoError(t, err)
	key, err = Generate(rand.Reader, k1)
	require.NoError(t, err)
	_, err = key.ECDSA()
	require.Error(t, err)
	sk, err := key.Secp256k1()
	require.NoError(t, err)
	require.Equal(t, key.Public, sk.PubKey().SerializeUncompressed())
}

func TestParseScalarDescriptor_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "unknown curve", in: "curve=NIST P-999\nd=01\nb=32\n"},
		{name: "missing separator", in: "curve NIST P-256\n"},
		{name: "bad hex", in: "curve=NIST P-256\nd=zz\nb=32\n"},
		{name: "wrong length", in: "curve=NIST P-256\nd=01\nb=48\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScalarDescriptor([]byte(tt.in))
			require.Error(t, err)
		})
	}
}

func readFile(t *testing.T, dir, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return data
}
