package vapid

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlead/pushgate/internal/errors"
)

// buildDER encodes r and s the way DER does: minimal big-endian bytes with a
// leading zero added when the high bit is set.
func buildDER(t *testing.T, r, s []byte) []byte {
	t.Helper()

	derInt := func(v []byte) []byte {
		v = bytes.TrimLeft(v, "\x00")
		if len(v) == 0 {
			v = []byte{0}
		}
		if v[0]&0x80 != 0 {
			v = append([]byte{0}, v...)
		}
		return append([]byte{derIntegerTag, byte(len(v))}, v...)
	}

	body := append(derInt(r), derInt(s)...)
	return append([]byte{derSequenceTag, byte(len(body))}, body...)
}

func TestNormalizeSignature_RawPassthrough(t *testing.T) {
	t.Parallel()

	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i + 1)
	}

	got, err := normalizeSignature(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestNormalizeSignature_DERHighBitPadding(t *testing.T) {
	t.Parallel()

	// r has the high bit set, forcing DER to add a 0x00 pad byte that must
	// be stripped, and s is short, requiring left-padding back to 32.
	r := bytes.Repeat([]byte{0xff}, 32)
	s := []byte{0x01, 0x02}

	got, err := normalizeSignature(buildDER(t, r, s))
	require.NoError(t, err)
	require.Len(t, got, 64)

	assert.Equal(t, r, got[:32])
	want := make([]byte, 32)
	copy(want[30:], s)
	assert.Equal(t, want, got[32:])
}

func TestNormalizeSignature_DERShortValues(t *testing.T) {
	t.Parallel()

	r := []byte{0x7f}
	s := []byte{0x00}

	got, err := normalizeSignature(buildDER(t, r, s))
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), got[31])
	for _, b := range got[:31] {
		assert.Zero(t, b)
	}
	for _, b := range got[32:] {
		assert.Zero(t, b)
	}
}

func TestNormalizeSignature_LongFormLength(t *testing.T) {
	t.Parallel()

	// Force a long-form sequence length by hand: 0x30 0x81 <len> <body>.
	r := bytes.Repeat([]byte{0x90}, 32) // high bit set, gets padded
	s := bytes.Repeat([]byte{0x91}, 32)
	der := buildDER(t, r, s)
	body := der[2:]
	longForm := append([]byte{derSequenceTag, 0x81, byte(len(body))}, body...)

	got, err := normalizeSignature(longForm)
	require.NoError(t, err)
	assert.Equal(t, r, got[:32])
	assert.Equal(t, s, got[32:])
}

func TestNormalizeSignature_RealSignatureVerifies(t *testing.T) {
	t.Parallel()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("vapid signing input"))
	der, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	require.NoError(t, err)

	raw, err := normalizeSignature(der)
	require.NoError(t, err)
	require.Len(t, raw, 64)

	r := new(big.Int).SetBytes(raw[:32])
	s := new(big.Int).SetBytes(raw[32:])
	assert.True(t, ecdsa.Verify(&priv.PublicKey, digest[:], r, s))
}

func TestNormalizeSignature_Malformed(t *testing.T) {
	t.Parallel()

	valid := buildDER(t, bytes.Repeat([]byte{0x11}, 32), bytes.Repeat([]byte{0x22}, 32))

	tests := []struct {
		name string
		sig  []byte
	}{
		{"empty", nil},
		{"neither DER nor raw", make([]byte, 63)},
		{"truncated sequence", valid[:10]},
		{"wrong inner tag", func() []byte {
			b := append([]byte(nil), valid...)
			b[2] = 0x05
			return b
		}()},
		{"trailing bytes", append(append([]byte(nil), valid...), 0x00)},
		{"length exceeds input", func() []byte {
			b := append([]byte(nil), valid...)
			b[1] = 0xf0
			return b
		}()},
		{"integer too large", buildDER(t, bytes.Repeat([]byte{0x01}, 40), []byte{0x02})},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := normalizeSignature(tt.sig)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategorySignatureFormat),
				"want signature-format category, got %v", errors.CategoryOf(err))
		})
	}
}
