// This file implements the HSS signature type, including serialization.
package hss

import (
	"encoding/binary"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/lms"
)

// ToBytes serializes the signature: u32(Nspk) followed by Nspk
// (LMS-signature, LMS-public-key) pairs and a final LMS signature over the
// message.
func (sig *Signature) ToBytes() ([]byte, error) {
	var serialized []byte
	var u32_be [4]byte

	binary.BigEndian.PutUint32(u32_be[:], sig.nspk)
	serialized = append(serialized, u32_be[:]...)

	for _, link := range sig.links {
		linkSigBytes, err := link.sig.ToBytes()
		if err != nil {
			return nil, err
		}
		serialized = append(serialized, linkSigBytes...)
		serialized = append(serialized, link.pub.ToBytes()...)
	}

	finalBytes, err := sig.final.ToBytes()
	if err != nil {
		return nil, err
	}
	serialized = append(serialized, finalBytes...)

	return serialized, nil
}

// maxNspk bounds the number of (LMS-signature, LMS-public-key) pairs a
// signature may claim, matching the level cap lms/restrict enforces on
// private key state. It exists to stop an attacker-controlled Nspk field
// from driving an oversized allocation before any other validation runs.
const maxNspk = 15

// minHssLinkLen is a lower bound on the encoding of one (LMS-signature,
// LMS-public-key) pair: the smallest LM-OTS signature (N24_W8, 652 bytes)
// plus its q and LMS-typecode fields, plus the smallest LMS public key
// (M=24, 48 bytes). The authentication path is not counted.
const minHssLinkLen = 4 + 652 + 4 + 48

// HssSignatureFromBytes parses an HSS signature from its wire format. This
// is the inverse of ToBytes. Every component length is computed from the
// prefix fields of the component before it; no length prefixes are added.
func HssSignatureFromBytes(b []byte) (Signature, error) {
	if len(b) < 4 {
		return Signature{}, common.NewInvalid("HssSignatureFromBytes(): no level count")
	}
	nspk := binary.BigEndian.Uint32(b[0:4])
	if nspk > maxNspk {
		return Signature{}, common.NewInvalid("HssSignatureFromBytes(): implausible level count")
	}
	if uint64(len(b)) < 4+uint64(nspk)*minHssLinkLen {
		return Signature{}, common.NewInvalid("HssSignatureFromBytes(): too short for claimed level count")
	}
	cur := uint64(4)

	links := make([]signatureLink, nspk)
	for i := uint32(0); i < nspk; i++ {
		sigLen, err := lmsSigByteLen(b[cur:])
		if err != nil {
			return Signature{}, err
		}
		if sigLen > uint64(len(b))-cur {
			return Signature{}, common.NewInvalid("HssSignatureFromBytes(): truncated LMS signature")
		}
		linkSig, err := lms.LmsSignatureFromBytes(b[cur : cur+sigLen])
		if err != nil {
			return Signature{}, err
		}
		cur += sigLen

		pubLen, err := lmsPubByteLen(b[cur:])
		if err != nil {
			return Signature{}, err
		}
		if pubLen > uint64(len(b))-cur {
			return Signature{}, common.NewInvalid("HssSignatureFromBytes(): truncated LMS public key")
		}
		linkPub, err := lms.LmsPublicKeyFromBytes(b[cur : cur+pubLen])
		if err != nil {
			return Signature{}, err
		}
		cur += pubLen

		links[i] = signatureLink{sig: linkSig, pub: linkPub}
	}

	final, err := lms.LmsSignatureFromBytes(b[cur:])
	if err != nil {
		return Signature{}, err
	}

	return Signature{
		nspk:  nspk,
		links: links,
		final: final,
	}, nil
}

// lmsSigByteLen returns the length in bytes of the LMS signature prefixing
// b, without fully parsing it.
func lmsSigByteLen(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, common.NewInvalid("lmsSigByteLen(): signature is too short")
	}
	otstc := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[4:8]))
	otssiglen, err := otstc.LmsOtsSigLength()
	if err != nil {
		return 0, common.AsInvalid(err, "lmsSigByteLen(): unknown LM-OTS typecode")
	}
	otsigmax := 4 + otssiglen
	if uint64(len(b)) < otsigmax+4 {
		return 0, common.NewInvalid("lmsSigByteLen(): signature is too short for LMS typecode")
	}
	typecode, err := common.Uint32ToLmsType(binary.BigEndian.Uint32(b[otsigmax : otsigmax+4])).LmsType()
	if err != nil {
		return 0, common.AsInvalid(err, "lmsSigByteLen(): unknown LMS typecode")
	}
	return typecode.LmsSigLength(otstc)
}

// lmsPubByteLen returns the length in bytes of the LMS public key prefixing
// b, without fully parsing it.
func lmsPubByteLen(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, common.NewInvalid("lmsPubByteLen(): public key is too short")
	}
	typecode, err := common.Uint32ToLmsType(binary.BigEndian.Uint32(b[0:4])).LmsType()
	if err != nil {
		return 0, common.AsInvalid(err, "lmsPubByteLen(): unknown LMS typecode")
	}
	params, err := typecode.LmsParams()
	if err != nil {
		return 0, common.AsInvalid(err, "lmsPubByteLen(): unknown LMS typecode")
	}
	return params.M + 24, nil
}
