package restrict

import (
	"encoding/binary"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/hss"
	"github.com/trailofbits/hsslms-go/lms/lms"
)

// cursor walks a byte slice, rejecting any read past the end as a FAILURE
// rather than panicking. This is the only place in the package that does
// raw slicing; every other function goes through it.
type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) tag() (byte, error) {
	if c.pos+1 > len(c.b) {
		return 0, common.NewFailure("restrict: truncated input, expected a tag byte")
	}
	t := c.b[c.pos]
	c.pos++
	return t, nil
}

func (c *cursor) expectTag(want byte, what string) error {
	got, err := c.tag()
	if err != nil {
		return err
	}
	if got != want {
		return common.NewFailure("restrict: expected %s tag 0x%02x, got 0x%02x", what, want, got)
	}
	return nil
}

func (c *cursor) u32() (uint32, error) {
	if c.pos+4 > len(c.b) {
		return 0, common.NewFailure("restrict: truncated input, expected a 4-byte field")
	}
	v := binary.BigEndian.Uint32(c.b[c.pos : c.pos+4])
	c.pos += 4
	return v, nil
}

func (c *cursor) bytes(n uint32) ([]byte, error) {
	if c.pos+int(n) > len(c.b) || n > 1<<24 {
		return nil, common.NewFailure("restrict: truncated input, expected %d bytes", n)
	}
	v := c.b[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return v, nil
}

// UnmarshalPrivateKey decodes the output of (*hss.PrivateKey).MarshalState.
// Every tag must appear in exactly the order MarshalState writes it; any
// unknown tag, wrong-order tag, or truncated/overlong field is rejected as
// a FAILURE. The only constructors this function calls are
// lms.LmsPrivateKeyFromBytes, lms.LmsPublicKeyFromBytes,
// lms.LmsSignatureFromBytes, and hss.AssemblePrivateKey — there is no path
// from an attacker-controlled tag to constructing any other Go value.
func UnmarshalPrivateKey(b []byte) (hss.PrivateKey, error) {
	c := &cursor{b: b}

	if err := c.expectTag(tagHssPrivateKey, "HSS private key"); err != nil {
		return hss.PrivateKey{}, err
	}
	version, err := c.u32()
	if err != nil {
		return hss.PrivateKey{}, err
	}
	if version != stateFormatVersion {
		return hss.PrivateKey{}, common.NewFailure("restrict: unsupported state format version %d", version)
	}
	threads, err := c.u32()
	if err != nil {
		return hss.PrivateKey{}, err
	}
	L, err := c.u32()
	if err != nil {
		return hss.PrivateKey{}, err
	}
	if L == 0 || L > 16 {
		return hss.PrivateKey{}, common.NewFailure("restrict: implausible level count %d", L)
	}

	priv := make([]lms.LmsPrivateKey, L)
	for i := uint32(0); i < L; i++ {
		if err := c.expectTag(tagLevelParam, "level parameter"); err != nil {
			return hss.PrivateKey{}, err
		}
		lmsCode, err := c.u32()
		if err != nil {
			return hss.PrivateKey{}, err
		}
		otsCode, err := c.u32()
		if err != nil {
			return hss.PrivateKey{}, err
		}

		if err := c.expectTag(tagLmsPrivateKey, "LMS private key"); err != nil {
			return hss.PrivateKey{}, err
		}
		n, err := c.u32()
		if err != nil {
			return hss.PrivateKey{}, err
		}
		privBytes, err := c.bytes(n)
		if err != nil {
			return hss.PrivateKey{}, err
		}
		// The record's level-parameter codes must match the typecodes
		// embedded in the private key bytes themselves (the layout written
		// by lms.LmsPrivateKey.ToBytes): bytes 0:4 are the LMS typecode,
		// bytes 4:8 the LM-OTS typecode.
		if len(privBytes) < 8 ||
			binary.BigEndian.Uint32(privBytes[0:4]) != lmsCode ||
			binary.BigEndian.Uint32(privBytes[4:8]) != otsCode {
			return hss.PrivateKey{}, common.NewFailure("restrict: level parameter does not match embedded private key typecode")
		}
		parsed, err := lms.LmsPrivateKeyFromBytes(privBytes)
		if err != nil {
			return hss.PrivateKey{}, common.AsFailure(err, "restrict: malformed LMS private key")
		}
		priv[i] = parsed
	}

	pub := make([]lms.LmsPublicKey, L)
	sig := make([]lms.LmsSignature, L-1)
	for i := uint32(1); i < L; i++ {
		if err := c.expectTag(tagLmsPublicKey, "LMS public key"); err != nil {
			return hss.PrivateKey{}, err
		}
		n, err := c.u32()
		if err != nil {
			return hss.PrivateKey{}, err
		}
		pubBytes, err := c.bytes(n)
		if err != nil {
			return hss.PrivateKey{}, err
		}
		parsedPub, err := lms.LmsPublicKeyFromBytes(pubBytes)
		if err != nil {
			return hss.PrivateKey{}, common.AsFailure(err, "restrict: malformed LMS public key")
		}
		pub[i] = parsedPub

		if err := c.expectTag(tagLmsSignature, "LMS signature"); err != nil {
			return hss.PrivateKey{}, err
		}
		n, err = c.u32()
		if err != nil {
			return hss.PrivateKey{}, err
		}
		sigBytes, err := c.bytes(n)
		if err != nil {
			return hss.PrivateKey{}, err
		}
		parsedSig, err := lms.LmsSignatureFromBytes(sigBytes)
		if err != nil {
			return hss.PrivateKey{}, common.AsFailure(err, "restrict: malformed LMS signature")
		}
		sig[i-1] = parsedSig
	}

	if c.pos != len(b) {
		return hss.PrivateKey{}, common.NewFailure("restrict: trailing data after private key record")
	}

	return hss.AssemblePrivateKey(int(threads), priv, pub, sig)
}
