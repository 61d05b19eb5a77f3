// Package ots implements one-time signatures (LM-OTS) for use in LMS
//
// This file implements the signature (including serialization).
package ots

import (
	"encoding/binary"

	"github.com/trailofbits/hsslms-go/lms/common"
)

// LmsOtsSignatureFromBytes returns an LmsOtsSignature represented by b.
// This is the inverse of ToBytes() on LmsOtsSignature.
func LmsOtsSignatureFromBytes(b []byte) (LmsOtsSignature, error) {
	if len(b) < 4 {
		return LmsOtsSignature{}, common.NewInvalid("LmsOtsSignatureFromBytes(): no typecode")
	}

	// Typecode is the first 4 bytes
	typecode := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[0:4]))
	params, err := typecode.Params()
	if err != nil {
		return LmsOtsSignature{}, common.AsInvalid(err, "LmsOtsSignatureFromBytes(): unknown typecode")
	}

	// check the length of the signature
	if uint64(len(b)) < params.SIG_LEN {
		return LmsOtsSignature{}, common.NewInvalid("LmsOtsSignatureFromBytes(): signature too short")
	} else if uint64(len(b)) > params.SIG_LEN {
		return LmsOtsSignature{}, common.NewInvalid("LmsOtsSignatureFromBytes(): signature too long")
	}

	// parse the signature
	c := b[4 : 4+int(params.N)]
	cur := uint64(4 + params.N)

	y := make([][]byte, params.P)
	for i := uint64(0); i < params.P; i++ {
		y[i] = b[cur : cur+params.N]
		cur += params.N
	}

	return LmsOtsSignature{
		typecode: typecode,
		c:        c,
		y:        y,
	}, nil
}

// ToBytes() serializes the LM-OTS signature into a byte string for transmission or storage.
func (sig *LmsOtsSignature) ToBytes() ([]byte, error) {
	var serialized []byte
	var u32_be [4]byte

	typecode, err := sig.typecode.LmsOtsType()
	if err != nil {
		return nil, common.AsFailure(err, "ToBytes(): invalid LM-OTS signature")
	}
	params, err := typecode.Params()
	if err != nil {
		return nil, common.AsFailure(err, "ToBytes(): invalid LM-OTS signature")
	}

	// First 4 bytes: LMOTS typecode
	binary.BigEndian.PutUint32(u32_be[:], typecode.ToUint32())
	serialized = append(serialized, u32_be[:]...)

	// Next n bytes: nonce C
	serialized = append(serialized, sig.c...)

	// Next p*n bytes: y[0] ... y[p-1]
	for i := uint64(0); i < params.P; i++ {
		serialized = append(serialized, sig.y[i]...)
	}

	return serialized, nil
}
