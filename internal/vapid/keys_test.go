package vapid

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlead/pushgate/internal/errors"
)

// generateTestKeyPair returns a fresh P-256 pair in the base64url wire form
// plus the raw uncompressed public key bytes.
func generateTestKeyPair(t *testing.T) (privB64, pubB64 string, pubBytes []byte) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	pubBytes = make([]byte, 65)
	pubBytes[0] = 0x04
	priv.X.FillBytes(pubBytes[1:33])
	priv.Y.FillBytes(pubBytes[33:])

	var scalar [32]byte
	priv.D.FillBytes(scalar[:])

	return base64.RawURLEncoding.EncodeToString(scalar[:]),
		base64.RawURLEncoding.EncodeToString(pubBytes),
		pubBytes
}

func TestImportKeys_RoundTrip(t *testing.T) {
	t.Parallel()

	privB64, pubB64, pubBytes := generateTestKeyPair(t)

	keys, err := ImportKeys(privB64, pubB64)
	require.NoError(t, err)

	// The key derived from the scalar must be byte-identical to the
	// configured 0x04||X||Y.
	assert.Equal(t, pubBytes, keys.PublicKeyBytes())
	assert.Equal(t, pubB64, keys.PublicKeyB64())
}

func TestImportKeys_PaddedInput(t *testing.T) {
	t.Parallel()

	privB64, pubB64, _ := generateTestKeyPair(t)

	// Keys pasted from other tooling often carry base64 padding.
	keys, err := ImportKeys(privB64+"==", pubB64+"=")
	require.NoError(t, err)
	assert.Equal(t, pubB64, keys.PublicKeyB64())
}

func TestImportKeys_JWKCoordinates(t *testing.T) {
	t.Parallel()

	privB64, pubB64, pubBytes := generateTestKeyPair(t)

	keys, err := ImportKeys(privB64, pubB64)
	require.NoError(t, err)

	x, y, d := keys.JWK()
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(pubBytes[1:33]), x)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(pubBytes[33:]), y)
	assert.Equal(t, privB64, d)
}

func TestImportKeys_Errors(t *testing.T) {
	t.Parallel()

	privB64, pubB64, _ := generateTestKeyPair(t)
	otherPriv, _, _ := generateTestKeyPair(t)

	tests := []struct {
		name string
		priv string
		pub  string
	}{
		{"empty public key", privB64, ""},
		{"empty private key", "", pubB64},
		{"public key not base64", privB64, "!!not-base64!!"},
		{"public key too short", privB64, base64.RawURLEncoding.EncodeToString(make([]byte, 33))},
		{"private key wrong length", base64.RawURLEncoding.EncodeToString(make([]byte, 16)), pubB64},
		{"zero scalar", base64.RawURLEncoding.EncodeToString(make([]byte, 32)), pubB64},
		{"mismatched pair", otherPriv, pubB64},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ImportKeys(tt.priv, tt.pub)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfiguration),
				"want configuration category, got %v", errors.CategoryOf(err))
		})
	}
}

func TestImportKeys_UnexpectedLengthMessage(t *testing.T) {
	t.Parallel()

	privB64, _, _ := generateTestKeyPair(t)

	// 50 bytes, no 0x04 prefix handling applies
	_, err := ImportKeys(privB64, base64.RawURLEncoding.EncodeToString(make([]byte, 50)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unexpected public key length: 50")
}

func TestImportKeys_PointNotOnCurve(t *testing.T) {
	t.Parallel()

	privB64, _, pubBytes := generateTestKeyPair(t)

	// Corrupt the Y coordinate so the point leaves the curve.
	bad := make([]byte, len(pubBytes))
	copy(bad, pubBytes)
	bad[64] ^= 0xff

	_, err := ImportKeys(privB64, base64.RawURLEncoding.EncodeToString(bad))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfiguration))
}
