package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Key is an elliptic curve keypair. The serialized forms written to disk
// are all derived from it.
type Key struct {
	Curve *Curve
	// D is the private scalar, big-endian, left-padded to Curve.ByteLen
	D []byte
	// Public is the uncompressed SEC1 encoding of the public point
	Public []byte
}

// Generate draws a private scalar uniformly from [1, N-1] and derives the
// public point.
func Generate(random io.Reader, curve *Curve) (*Key, error) {
	max := new(big.Int).Sub(curve.Params().N, big.NewInt(1))
	k, err := rand.Int(random, max)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private scalar: %w", err)
	}
	k.Add(k, big.NewInt(1))
	return NewKey(curve, k.FillBytes(make([]byte, curve.ByteLen)))
}

// NewKey builds a key from a big-endian private scalar.
func NewKey(curve *Curve, d []byte) (*Key, error) {
	if len(d) > curve.ByteLen {
		return nil, fmt.Errorf("private scalar is %d bytes, curve %s allows %d", len(d), curve.Name, curve.ByteLen)
	}
	scalar := new(big.Int).SetBytes(d)
	if scalar.Sign() == 0 || scalar.Cmp(curve.Params().N) >= 0 {
		return nil, errors.New("private scalar out of range")
	}
	padded := scalar.FillBytes(make([]byte, curve.ByteLen))

	var pub []byte
	if curve.IsSecp256k1() {
		pub = secp256k1.PrivKeyFromBytes(padded).PubKey().SerializeUncompressed()
	} else {
		x, y := curve.ec.ScalarBaseMult(padded)
		pub = elliptic.Marshal(curve.ec, x, y)
	}

	return &Key{Curve: curve, D: padded, Public: pub}, nil
}

// Scalar returns the private scalar as an integer.
func (k *Key) Scalar() *big.Int {
	return new(big.Int).SetBytes(k.D)
}

// Point returns the affine coordinates of the public point.
func (k *Key) Point() (x, y *big.Int) {
	n := k.Curve.ByteLen
	return new(big.Int).SetBytes(k.Public[1 : 1+n]), new(big.Int).SetBytes(k.Public[1+n:])
}

// ECDSA returns the key as a crypto/ecdsa private key. Keys on secp256k1
// must use Secp256k1 instead.
func (k *Key) ECDSA() (*ecdsa.PrivateKey, error) {
	if k.Curve.IsSecp256k1() {
		return nil, fmt.Errorf("curve %s is not handled by crypto/ecdsa", k.Curve.Name)
	}
	x, y := k.Point()
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: k.Curve.ec, X: x, Y: y},
		D:         k.Scalar(),
	}, nil
}

// Secp256k1 returns the key as a secp256k1 private key.
func (k *Key) Secp256k1() (*secp256k1.PrivateKey, error) {
	if !k.Curve.IsSecp256k1() {
		return nil, fmt.Errorf("curve %s is not secp256k1", k.Curve.Name)
	}
	return secp256k1.PrivKeyFromBytes(k.D), nil
}
