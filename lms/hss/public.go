// This file implements the HSS public key and verification logic.
package hss

import (
	"encoding/binary"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/lms"
)

// ToBytes serializes the HSS public key: u32(L) followed by the root LMS
// public key.
func (pub *PublicKey) ToBytes() []byte {
	var u32_be [4]byte
	binary.BigEndian.PutUint32(u32_be[:], pub.L)
	return append(u32_be[:], pub.pub.ToBytes()...)
}

// HssPublicKeyFromBytes parses an HSS public key from its wire format.
// This is the inverse of ToBytes.
func HssPublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) < 4 {
		return PublicKey{}, common.NewInvalid("HssPublicKeyFromBytes(): no level count")
	}
	L := binary.BigEndian.Uint32(b[0:4])
	if L == 0 {
		return PublicKey{}, common.NewInvalid("HssPublicKeyFromBytes(): L must be at least 1")
	}
	rootPub, err := lms.LmsPublicKeyFromBytes(b[4:])
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{L: L, pub: rootPub}, nil
}

// Verify returns true if sig is a valid HSS signature of msg under pub.
func (pub *PublicKey) Verify(msg []byte, sig Signature) bool {
	if sig.nspk+1 != pub.L {
		return false
	}

	key := pub.pub
	for _, link := range sig.links {
		if !key.Verify(link.pub.ToBytes(), link.sig) {
			return false
		}
		key = link.pub
	}
	return key.Verify(msg, sig.final)
}
