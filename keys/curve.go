package keys

// curve.go holds the table of supported named curves and the per-backend
// spellings of their names.

import (
	"crypto/elliptic"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrUnsupportedCurve is returned for curve names not in the table.
var ErrUnsupportedCurve = errors.New("unsupported curve")

// Curve is a named elliptic curve that keys can be generated on.
type Curve struct {
	// Name is the canonical name, as accepted on the command line
	Name string
	// Aliases are alternative spellings accepted by LookupCurve
	Aliases []string
	// OpenSSLName is the name openssl uses for the curve
	OpenSSLName string
	// OID is the named curve object identifier used in PKCS#8 and SPKI
	OID asn1.ObjectIdentifier
	// Bits is the size of the curve order in bits
	Bits int
	// ByteLen is the length of the private scalar and of each coordinate
	ByteLen int

	ec elliptic.Curve
}

var (
	oidPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

	oidNamedCurveP192      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 1}
	oidNamedCurveP224      = asn1.ObjectIdentifier{1, 3, 132, 0, 33}
	oidNamedCurveP256      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidNamedCurveP384      = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	oidNamedCurveP521      = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
	oidNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

var curves = []*Curve{
	{
		Name:        "NIST192p",
		Aliases:     []string{"P-192", "prime192v1", "secp192r1"},
		OpenSSLName: "prime192v1",
		OID:         oidNamedCurveP192,
		Bits:        192,
		ByteLen:     24,
		ec:          p192(),
	},
	{
		Name:        "NIST224p",
		Aliases:     []string{"P-224", "secp224r1"},
		OpenSSLName: "secp224r1",
		OID:         oidNamedCurveP224,
		Bits:        224,
		ByteLen:     28,
		ec:          elliptic.P224(),
	},
	{
		Name:        "NIST256p",
		Aliases:     []string{"P-256", "prime256v1", "secp256r1"},
		OpenSSLName: "prime256v1",
		OID:         oidNamedCurveP256,
		Bits:        256,
		ByteLen:     32,
		ec:          elliptic.P256(),
	},
	{
		Name:        "NIST384p",
		Aliases:     []string{"P-384", "secp384r1"},
		OpenSSLName: "secp384r1",
		OID:         oidNamedCurveP384,
		Bits:        384,
		ByteLen:     48,
		ec:          elliptic.P384(),
	},
	{
		Name:        "NIST521p",
		Aliases:     []string{"P-521", "secp521r1"},
		OpenSSLName: "secp521r1",
		OID:         oidNamedCurveP521,
		Bits:        521,
		ByteLen:     66,
		ec:          elliptic.P521(),
	},
	{
		Name:        "SECP256k1",
		OpenSSLName: "secp256k1",
		OID:         oidNamedCurveSecp256k1,
		Bits:        256,
		ByteLen:     32,
		ec:          secp256k1.S256(),
	},
}

// Curves returns all supported curves in table order.
func Curves() []*Curve {
	out := make([]*Curve, len(curves))
	copy(out, curves)
	return out
}

// LookupCurve finds a curve by canonical name or alias, ignoring case.
func LookupCurve(name string) (*Curve, error) {
	for _, c := range curves {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
		for _, alias := range c.Aliases {
			if strings.EqualFold(alias, name) {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: curve %s is not a known curve", ErrUnsupportedCurve, name)
}

func curveByOID(oid asn1.ObjectIdentifier) (*Curve, error) {
	for _, c := range curves {
		if c.OID.Equal(oid) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: object identifier %s", ErrUnsupportedCurve, oid)
}

// GcryptName is the curve name as libgcrypt expects it in an s-expression.
// NIST curves become "NIST P-<bits>", everything else is passed through.
func (c *Curve) GcryptName() string {
	if strings.HasPrefix(c.Name, "NIST") {
		return fmt.Sprintf("NIST P-%d", c.Bits)
	}
	return c.Name
}

// Params returns the curve domain parameters. IsOnCurve on the returned
// params assumes a=-3 and is wrong for SECP256k1; use Curve.IsOnCurve.
func (c *Curve) Params() *elliptic.CurveParams {
	return c.ec.Params()
}

// IsOnCurve reports whether (x, y) is a point on the curve.
func (c *Curve) IsOnCurve(x, y *big.Int) bool {
	return c.ec.IsOnCurve(x, y)
}

// IsSecp256k1 reports whether keys on this curve are handled by the
// secp256k1 package instead of crypto/ecdsa.
func (c *Curve) IsSecp256k1() bool {
	return c.OID.Equal(oidNamedCurveSecp256k1)
}

func (c *Curve) String() string {
	return c.Name
}

// p192 is not shipped by crypto/elliptic, so the generic CurveParams
// arithmetic is used for it.
func p192() elliptic.Curve {
	params := &elliptic.CurveParams{Name: "P-192", BitSize: 192}
	params.P, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffeffffffffffffffff", 16)
	params.N, _ = new(big.Int).SetString("ffffffffffffffffffffffff99def836146bc9b1b4d22831", 16)
	params.B, _ = new(big.Int).SetString("64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1", 16)
	params.Gx, _ = new(big.Int).SetString("188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012", 16)
	params.Gy, _ = new(big.Int).SetString("07192b95ffc8da78631011ed6b24cdd573f977a11e794811", 16)
	return params
}
