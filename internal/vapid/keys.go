// Package vapid implements the Voluntary Application Server Identification
// scheme for Web Push (RFC 8292) without a push or JWT library: P-256 key
// import from raw base64url coordinates, ES256 compact JWT signing, and
// normalization of ECDSA signatures from DER to the raw 64-byte form the
// protocol expects.
//
// The package is pure and network-free so the dispatcher's control flow can
// be tested without touching a push service.
package vapid

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"

	"github.com/gridlead/pushgate/internal/errors"
)

const (
	// uncompressedPointLen is the byte length of an uncompressed P-256
	// public key: 0x04 || X(32) || Y(32).
	uncompressedPointLen = 65

	// coordinateLen is the byte length of one P-256 coordinate or of the
	// private scalar.
	coordinateLen = 32

	// uncompressedPointPrefix marks an uncompressed EC point.
	uncompressedPointPrefix = 0x04
)

// Keys is an imported P-256 signing handle. It is valid only for
// ECDSA-P256-SHA256 signing and public key export.
type Keys struct {
	priv *ecdsa.PrivateKey
}

// decodeB64 decodes unpadded base64url, tolerating padded input since key
// material is frequently copied around with trailing '=' intact.
func decodeB64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// encodeB64 encodes to unpadded base64url as used throughout Web Push.
func encodeB64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// ImportKeys reconstructs a signing handle from the base64url private scalar
// and the base64url uncompressed public key. The public key must be 65 bytes
// with a 0x04 prefix; compressed points are not supported. The scalar's
// derived public point must match the supplied one, so a mismatched pair is
// rejected at import rather than producing tokens the push service cannot
// verify.
func ImportKeys(privB64, pubB64 string) (*Keys, error) {
	if pubB64 == "" {
		return nil, errors.Newf("VAPID_PUBLIC_KEY missing or invalid").
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if privB64 == "" {
		return nil, errors.Newf("VAPID_PRIVATE_KEY missing or invalid").
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Build()
	}

	pub, err := decodeB64(pubB64)
	if err != nil {
		return nil, errors.Newf("VAPID_PUBLIC_KEY missing or invalid").
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Context("decode_error", err.Error()).
			Build()
	}
	if len(pub) == uncompressedPointLen && pub[0] == uncompressedPointPrefix {
		pub = pub[1:]
	}
	if len(pub) != 2*coordinateLen {
		return nil, errors.Newf("Unexpected public key length: %d", len(pub)).
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Build()
	}

	scalar, err := decodeB64(privB64)
	if err != nil || len(scalar) != coordinateLen {
		return nil, errors.Newf("VAPID_PRIVATE_KEY missing or invalid").
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Build()
	}

	curve := elliptic.P256()
	x := new(big.Int).SetBytes(pub[:coordinateLen])
	y := new(big.Int).SetBytes(pub[coordinateLen:])
	if !curve.IsOnCurve(x, y) {
		return nil, errors.Newf("public key point is not on the P-256 curve").
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Build()
	}

	d := new(big.Int).SetBytes(scalar)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, errors.Newf("private key scalar out of range").
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Build()
	}

	// The configured public key and the point derived from the scalar must
	// agree, otherwise Crypto-Key and the JWT signature would disagree too.
	dx, dy := curve.ScalarBaseMult(scalar)
	if dx.Cmp(x) != 0 || dy.Cmp(y) != 0 {
		return nil, errors.Newf("public and private VAPID keys do not form a pair").
			Component("vapid").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return &Keys{
		priv: &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
			D:         d,
		},
	}, nil
}

// GenerateKeys creates a fresh P-256 key pair and returns the base64url
// public key and private scalar in the forms ImportKeys accepts.
func GenerateKeys() (pubB64, privB64 string, err error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", errors.New(err).Component("vapid").Category(errors.CategoryGeneric).Build()
	}

	pub := make([]byte, uncompressedPointLen)
	pub[0] = uncompressedPointPrefix
	priv.X.FillBytes(pub[1 : 1+coordinateLen])
	priv.Y.FillBytes(pub[1+coordinateLen:])

	var scalar [coordinateLen]byte
	priv.D.FillBytes(scalar[:])

	return encodeB64(pub), encodeB64(scalar[:]), nil
}

// PublicKeyBytes re-derives the uncompressed public key 0x04||X||Y from the
// private scalar. This derived value, not the externally configured string,
// is what gets embedded in the Crypto-Key header, so the advertised key is
// always the one that signed the token.
func (k *Keys) PublicKeyBytes() []byte {
	curve := k.priv.Curve
	x, y := curve.ScalarBaseMult(k.priv.D.Bytes())
	out := make([]byte, uncompressedPointLen)
	out[0] = uncompressedPointPrefix
	x.FillBytes(out[1 : 1+coordinateLen])
	y.FillBytes(out[1+coordinateLen:])
	return out
}

// PublicKeyB64 returns the derived public key in the base64url form used in
// the Crypto-Key header.
func (k *Keys) PublicKeyB64() string {
	return encodeB64(k.PublicKeyBytes())
}

// JWK exports the key's JSON Web Key coordinates: base64url x, y and d.
func (k *Keys) JWK() (x, y, d string) {
	var xb, yb, db [coordinateLen]byte
	k.priv.X.FillBytes(xb[:])
	k.priv.Y.FillBytes(yb[:])
	k.priv.D.FillBytes(db[:])
	return encodeB64(xb[:]), encodeB64(yb[:]), encodeB64(db[:])
}
