package keys

// encoding.go builds and parses the PKCS#8 and SubjectPublicKeyInfo
// structures by hand. crypto/x509 only knows the curves shipped with
// crypto/elliptic, and every curve here has to serialize the same way.

import (
	"bufio"
	"bytes"
	"encoding/asn1"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

const (
	pemTypePrivateKey = "PRIVATE KEY"
	pemTypePublicKey  = "PUBLIC KEY"

	ecPrivKeyVersion = 1
)

var (
	tagECParams    = cbasn1.Tag(0).ContextSpecific().Constructed()
	tagECPublicKey = cbasn1.Tag(1).ContextSpecific().Constructed()
)

func (k *Key) addAlgorithmIdentifier(b *cryptobyte.Builder) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oidPublicKeyECDSA)
		b.AddASN1ObjectIdentifier(k.Curve.OID)
	})
}

// MarshalPKCS8 returns the DER encoding of the key as a PKCS#8
// PrivateKeyInfo wrapping an RFC 5915 ECPrivateKey.
func (k *Key) MarshalPKCS8() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		k.addAlgorithmIdentifier(b)
		b.AddASN1(cbasn1.OCTET_STRING, func(b *cryptobyte.Builder) {
			b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1Int64(ecPrivKeyVersion)
				b.AddASN1OctetString(k.D)
				b.AddASN1(tagECPublicKey, func(b *cryptobyte.Builder) {
					b.AddASN1BitString(k.Public)
				})
			})
		})
	})
	return b.Bytes()
}

// MarshalPKIX returns the DER encoding of the public key as a
// SubjectPublicKeyInfo.
func (k *Key) MarshalPKIX() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		k.addAlgorithmIdentifier(b)
		b.AddASN1BitString(k.Public)
	})
	return b.Bytes()
}

// ParsePKCS8 decodes a PKCS#8 EC private key. The public point is
// recomputed from the scalar and, when present in the input, checked
// against it.
func ParsePKCS8(der []byte) (*Key, error) {
	input := cryptobyte.String(der)
	var (
		info, ecKey, priv cryptobyte.String
		version           int64
	)
	if !input.ReadASN1(&info, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, errors.New("malformed PKCS#8 private key")
	}
	if !info.ReadASN1Integer(&version) || version != 0 {
		return nil, errors.New("unsupported PKCS#8 version")
	}
	curve, err := readAlgorithmIdentifier(&info)
	if err != nil {
		return nil, err
	}
	if !info.ReadASN1(&ecKey, cbasn1.OCTET_STRING) {
		return nil, errors.New("malformed PKCS#8 private key payload")
	}

	var (
		seq        cryptobyte.String
		params     cryptobyte.String
		pubWrapper cryptobyte.String
		hasParams  bool
		hasPublic  bool
	)
	if !ecKey.ReadASN1(&seq, cbasn1.SEQUENCE) ||
		!seq.ReadASN1Integer(&version) || version != ecPrivKeyVersion ||
		!seq.ReadASN1(&priv, cbasn1.OCTET_STRING) ||
		!seq.ReadOptionalASN1(&params, &hasParams, tagECParams) ||
		!seq.ReadOptionalASN1(&pubWrapper, &hasPublic, tagECPublicKey) {
		return nil, errors.New("malformed EC private key")
	}

	key, err := NewKey(curve, priv)
	if err != nil {
		return nil, err
	}
	if hasPublic {
		var pub asn1.BitString
		if !pubWrapper.ReadASN1BitString(&pub) {
			return nil, errors.New("malformed EC public key in private key")
		}
		if !bytes.Equal(pub.RightAlign(), key.Public) {
			return nil, errors.New("public key does not match private scalar")
		}
	}
	return key, nil
}

// ParsePKIX decodes a SubjectPublicKeyInfo and returns the curve and the
// uncompressed public point.
func ParsePKIX(der []byte) (*Curve, []byte, error) {
	input := cryptobyte.String(der)
	var (
		spki cryptobyte.String
		pub  asn1.BitString
	)
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, nil, errors.New("malformed public key")
	}
	curve, err := readAlgorithmIdentifier(&spki)
	if err != nil {
		return nil, nil, err
	}
	if !spki.ReadASN1BitString(&pub) {
		return nil, nil, errors.New("malformed public key bit string")
	}
	point := pub.RightAlign()
	if len(point) != 1+2*curve.ByteLen || point[0] != 4 {
		return nil, nil, errors.New("public key is not an uncompressed point")
	}
	return curve, point, nil
}

func readAlgorithmIdentifier(s *cryptobyte.String) (*Curve, error) {
	var (
		alg      cryptobyte.String
		algOID   asn1.ObjectIdentifier
		curveOID asn1.ObjectIdentifier
	)
	if !s.ReadASN1(&alg, cbasn1.SEQUENCE) ||
		!alg.ReadASN1ObjectIdentifier(&algOID) ||
		!alg.ReadASN1ObjectIdentifier(&curveOID) {
		return nil, errors.New("malformed algorithm identifier")
	}
	if !algOID.Equal(oidPublicKeyECDSA) {
		return nil, fmt.Errorf("unsupported key algorithm %s", algOID)
	}
	return curveByOID(curveOID)
}

// PrivatePEM returns the PKCS#8 key wrapped in a "PRIVATE KEY" PEM block.
func (k *Key) PrivatePEM() ([]byte, error) {
	der, err := k.MarshalPKCS8()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// PublicPEM returns the SubjectPublicKeyInfo wrapped in a "PUBLIC KEY"
// PEM block.
func (k *Key) PublicPEM() ([]byte, error) {
	der, err := k.MarshalPKIX()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der}), nil
}

// ParsePrivatePEM decodes a "PRIVATE KEY" PEM block.
func ParsePrivatePEM(data []byte) (*Key, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypePrivateKey {
		return nil, errors.New("invalid private key: not in PEM format or not a PKCS#8 key")
	}
	return ParsePKCS8(block.Bytes)
}

// ScalarDescriptor renders the plain text key description read by the
// libgcrypt gatherer:
//
//	curve=<libgcrypt curve name>
//	d=<private scalar, fixed width hex>
//	b=<byte length>
func (k *Key) ScalarDescriptor() []byte {
	return []byte(fmt.Sprintf("curve=%s\nd=%s\nb=%d\n",
		k.Curve.GcryptName(), hex.EncodeToString(k.D), k.Curve.ByteLen))
}

// ParseScalarDescriptor is the inverse of ScalarDescriptor.
func ParseScalarDescriptor(data []byte) (*Key, error) {
	fields := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("'=' separator not found in line: %s", line)
		}
		fields[name] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var curve *Curve
	for _, c := range curves {
		if c.GcryptName() == fields["curve"] {
			curve = c
			break
		}
	}
	if curve == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, fields["curve"])
	}
	byteLen, err := strconv.Atoi(fields["b"])
	if err != nil {
		return nil, fmt.Errorf("invalid byte length: %w", err)
	}
	if byteLen != curve.ByteLen {
		return nil, fmt.Errorf("byte length %d does not match curve %s", byteLen, curve.Name)
	}
	d, err := hex.DecodeString(fields["d"])
	if err != nil {
		return nil, fmt.Errorf("invalid private scalar: %w", err)
	}
	return NewKey(curve, d)
}
