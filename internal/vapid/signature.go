package vapid

import (
	"github.com/gridlead/pushgate/internal/errors"
)

const (
	derSequenceTag = 0x30
	derIntegerTag  = 0x02

	// rawSignatureLen is the fixed-width r||s form Web Push expects.
	rawSignatureLen = 64
)

// normalizeSignature converts an ECDSA signature to the raw 64-byte
// r(32)||s(32) form. The input may be ASN.1 DER (SEQUENCE of two INTEGERs,
// which Go's crypto produces) or already raw, in which case it is returned
// unchanged. Any malformed DER is a signature-format error and aborts the
// send that produced it.
func normalizeSignature(sig []byte) ([]byte, error) {
	if len(sig) == 0 {
		return nil, sigFormatErr("empty signature")
	}
	if sig[0] != derSequenceTag {
		if len(sig) == rawSignatureLen {
			return sig, nil
		}
		return nil, sigFormatErr("signature is neither DER nor 64-byte raw (%d bytes)", len(sig))
	}
	return derToRaw(sig)
}

// derToRaw parses SEQUENCE{INTEGER r, INTEGER s} and repacks the two values
// as fixed-width 32-byte big-endian integers.
func derToRaw(sig []byte) ([]byte, error) {
	body, rest, err := parseTLV(sig, derSequenceTag)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, sigFormatErr("trailing bytes after DER sequence")
	}

	r, body, err := parseTLV(body, derIntegerTag)
	if err != nil {
		return nil, err
	}
	s, body, err := parseTLV(body, derIntegerTag)
	if err != nil {
		return nil, err
	}
	if len(body) != 0 {
		return nil, sigFormatErr("trailing bytes after DER integers")
	}

	out := make([]byte, rawSignatureLen)
	if err := packInteger(out[:32], r); err != nil {
		return nil, err
	}
	if err := packInteger(out[32:], s); err != nil {
		return nil, err
	}
	return out, nil
}

// parseTLV reads one tag-length-value element, supporting both short-form
// and multi-byte long-form length encodings, and returns the value together
// with the unconsumed remainder.
func parseTLV(buf []byte, tag byte) (value, rest []byte, err error) {
	if len(buf) < 2 {
		return nil, nil, sigFormatErr("truncated DER element")
	}
	if buf[0] != tag {
		return nil, nil, sigFormatErr("unexpected DER tag 0x%02x, want 0x%02x", buf[0], tag)
	}

	length := int(buf[1])
	offset := 2
	if length >= 0x80 {
		numBytes := length & 0x7f
		// ECDSA P-256 signatures are short; more than two length bytes
		// cannot occur in well-formed input.
		if numBytes == 0 || numBytes > 2 {
			return nil, nil, sigFormatErr("unsupported DER length encoding")
		}
		if len(buf) < offset+numBytes {
			return nil, nil, sigFormatErr("truncated DER length")
		}
		length = 0
		for i := 0; i < numBytes; i++ {
			length = length<<8 | int(buf[offset+i])
		}
		offset += numBytes
	}

	if length < 0 || len(buf) < offset+length {
		return nil, nil, sigFormatErr("DER length exceeds input")
	}
	return buf[offset : offset+length], buf[offset+length:], nil
}

// packInteger writes a DER integer value into a fixed 32-byte window,
// stripping the optional leading zero pad DER adds when the high bit is set
// and restoring shorter values by left-padding with zeros. Truncation never
// happens: an integer wider than 32 bytes after stripping is rejected.
func packInteger(dst, val []byte) error {
	if len(val) == 0 {
		return sigFormatErr("empty DER integer")
	}
	if val[0] == 0x00 && len(val) > 1 {
		val = val[1:]
	}
	if len(val) > len(dst) {
		return sigFormatErr("DER integer too large: %d bytes", len(val))
	}
	// left-pad with zeros
	pad := len(dst) - len(val)
	for i := 0; i < pad; i++ {
		dst[i] = 0
	}
	copy(dst[pad:], val)
	return nil
}

func sigFormatErr(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("vapid").
		Category(errors.CategorySignatureFormat).
		Build()
}
