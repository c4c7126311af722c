package vapid

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"time"

	"github.com/gridlead/pushgate/internal/errors"
)

// TokenTTL is the fixed lifetime of a VAPID JWT. The Web Push spec caps
// tokens at 24 hours; callers cannot extend this.
const TokenTTL = 12 * time.Hour

// tokenHeader is the fixed JOSE header for VAPID tokens.
type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// tokenClaims is the VAPID claim set: the push service origin, the fixed
// expiry and the operator contact URI.
type tokenClaims struct {
	Aud string `json:"aud"`
	Exp int64  `json:"exp"`
	Sub string `json:"sub"`
}

// SignToken produces the compact ES256 JWT for the given audience (the
// origin of the subscription endpoint) and subject (the operator's contact
// URI). The result is three unpadded base64url segments joined with dots.
func SignToken(keys *Keys, audience, subject string) (string, error) {
	return signTokenAt(keys, audience, subject, time.Now())
}

// signTokenAt is SignToken with an injectable clock for tests.
func signTokenAt(keys *Keys, audience, subject string, now time.Time) (string, error) {
	header, err := json.Marshal(tokenHeader{Alg: "ES256", Typ: "JWT"})
	if err != nil {
		return "", errors.New(err).Component("vapid").Category(errors.CategoryGeneric).Build()
	}
	claims, err := json.Marshal(tokenClaims{
		Aud: audience,
		Exp: now.Add(TokenTTL).Unix(),
		Sub: subject,
	})
	if err != nil {
		return "", errors.New(err).Component("vapid").Category(errors.CategoryGeneric).Build()
	}

	signingInput := encodeB64(header) + "." + encodeB64(claims)

	digest := sha256.Sum256([]byte(signingInput))
	sig, err := ecdsa.SignASN1(rand.Reader, keys.priv, digest[:])
	if err != nil {
		return "", errors.New(err).Component("vapid").Category(errors.CategorySignatureFormat).Build()
	}

	// Go's signer emits DER; the wire format wants fixed-width r||s.
	raw, err := normalizeSignature(sig)
	if err != nil {
		return "", err
	}

	return signingInput + "." + encodeB64(raw), nil
}
