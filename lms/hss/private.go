// This file implements HSS private key generation and signing.
package hss

import (
	"encoding/binary"
	"io"
	"math/big"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/lms"
)

// GenerateHssPrivateKey builds an HSS private key with one LMS tree per
// entry in levels. Level 0 is the root; levels build in order, and every
// level except the last is immediately used to sign the next level's
// public key, consuming one of its own leaves. threads sizes the
// worker pool used to build each LMS tree; 0 selects runtime.GOMAXPROCS(0).
func GenerateHssPrivateKey(levels []LevelParam, threads int) (PrivateKey, error) {
	if len(levels) == 0 {
		return PrivateKey{}, common.NewFailure("GenerateHssPrivateKey(): at least one level is required")
	}

	L := len(levels)
	priv := make([]lms.LmsPrivateKey, L)
	pub := make([]lms.LmsPublicKey, L)
	sig := make([]lms.LmsSignature, L-1)

	var err error
	priv[0], err = lms.NewPrivateKeyWithThreads(levels[0].LmsType, levels[0].OtsType, threads)
	if err != nil {
		return PrivateKey{}, err
	}

	for i := 1; i < L; i++ {
		priv[i], err = lms.NewPrivateKeyWithThreads(levels[i].LmsType, levels[i].OtsType, threads)
		if err != nil {
			return PrivateKey{}, err
		}
		pub[i] = priv[i].Public()
		sig[i-1], err = priv[i-1].Sign(pub[i].ToBytes(), nil)
		if err != nil {
			return PrivateKey{}, err
		}
	}

	return PrivateKey{
		Threads: threads,
		levels:  levels,
		priv:    priv,
		pub:     pub,
		sig:     sig,
	}, nil
}

// Public returns the HSS public key: the number of levels and the root
// LMS public key.
func (k *PrivateKey) Public() PublicKey {
	return PublicKey{
		L:   uint32(len(k.priv)),
		pub: k.priv[0].Public(),
	}
}

// Avail returns the number of messages this key can still sign. Each level
// i contributes priv[i].Remaining() independent uses of every level below
// it, so the total is the product across all levels.
func (k *PrivateKey) Avail() *big.Int {
	total := big.NewInt(1)
	for i := range k.priv {
		total.Mul(total, new(big.Int).SetUint64(k.priv[i].Remaining()))
	}
	return total
}

// AssemblePrivateKey reconstructs a PrivateKey from its constituent LMS
// private keys and cached intra-level signatures. It is used only by
// lms/restrict, which builds these slices field-by-field while walking a
// whitelisted byte grammar; this function performs the structural checks
// that make that reconstruction safe.
func AssemblePrivateKey(threads int, priv []lms.LmsPrivateKey, pub []lms.LmsPublicKey, sig []lms.LmsSignature) (PrivateKey, error) {
	L := len(priv)
	if L == 0 {
		return PrivateKey{}, common.NewFailure("AssemblePrivateKey(): at least one level is required")
	}
	if len(pub) != L || len(sig) != L-1 {
		return PrivateKey{}, common.NewFailure("AssemblePrivateKey(): cached public key/signature counts do not match level count")
	}

	levels := make([]LevelParam, L)
	levels[0] = LevelParam{LmsType: priv[0].Typecode(), OtsType: priv[0].OtsType()}
	for i := 1; i < L; i++ {
		levels[i] = LevelParam{LmsType: priv[i].Typecode(), OtsType: priv[i].OtsType()}
		expected := priv[i].Public()
		if string(expected.ToBytes()) != string(pub[i].ToBytes()) {
			return PrivateKey{}, common.NewFailure("AssemblePrivateKey(): cached public key at level %d does not match its private key", i)
		}
	}

	return PrivateKey{
		Threads: threads,
		levels:  levels,
		priv:    priv,
		pub:     pub,
		sig:     sig,
	}, nil
}

// Tags identifying each record in MarshalState's output. lms/restrict walks
// this exact sequence of tags while decoding and rejects anything else,
// so these values and their order form the on-disk grammar; they must stay
// in sync with the matching constants in lms/restrict/tags.go.
const (
	tagHssPrivateKey byte = 0x01
	tagLevelParam    byte = 0x02
	tagLmsPrivateKey byte = 0x03
	tagLmsPublicKey  byte = 0x04
	tagLmsSignature  byte = 0x05
)

// stateFormatVersion is incremented whenever MarshalState's layout changes.
const stateFormatVersion uint32 = 1

// MarshalState serializes the full in-memory state needed to resume signing:
// every level's LMS private key (including its current leaf counter) plus
// the cached intra-level public keys and signatures that link each level to
// its parent. This is the format persist.Container writes to disk.
func (k *PrivateKey) MarshalState() []byte {
	var out []byte
	var u32_be [4]byte

	L := len(k.priv)
	out = append(out, tagHssPrivateKey)
	binary.BigEndian.PutUint32(u32_be[:], stateFormatVersion)
	out = append(out, u32_be[:]...)
	binary.BigEndian.PutUint32(u32_be[:], uint32(k.Threads))
	out = append(out, u32_be[:]...)
	binary.BigEndian.PutUint32(u32_be[:], uint32(L))
	out = append(out, u32_be[:]...)

	for i := 0; i < L; i++ {
		lmsTc, _ := k.priv[i].Typecode().LmsType()
		otsTc, _ := k.priv[i].OtsType().LmsOtsType()
		out = append(out, tagLevelParam)
		binary.BigEndian.PutUint32(u32_be[:], lmsTc.ToUint32())
		out = append(out, u32_be[:]...)
		binary.BigEndian.PutUint32(u32_be[:], otsTc.ToUint32())
		out = append(out, u32_be[:]...)

		privBytes := k.priv[i].ToBytes()
		out = append(out, tagLmsPrivateKey)
		binary.BigEndian.PutUint32(u32_be[:], uint32(len(privBytes)))
		out = append(out, u32_be[:]...)
		out = append(out, privBytes...)
	}
	for i := 1; i < L; i++ {
		pubBytes := k.pub[i].ToBytes()
		out = append(out, tagLmsPublicKey)
		binary.BigEndian.PutUint32(u32_be[:], uint32(len(pubBytes)))
		out = append(out, u32_be[:]...)
		out = append(out, pubBytes...)

		sigBytes, err := k.sig[i-1].ToBytes()
		if err != nil {
			// A cached signature produced by this package's own Sign can
			// never fail to serialize; this would indicate memory corruption.
			panic(err)
		}
		out = append(out, tagLmsSignature)
		binary.BigEndian.PutUint32(u32_be[:], uint32(len(sigBytes)))
		out = append(out, u32_be[:]...)
		out = append(out, sigBytes...)
	}
	return out
}

// Sign produces an HSS signature over msg. The rng argument is optional;
// if nil, crypto/rand.Reader is used. Returns a FailureError when no level,
// the root included, has a remaining leaf; the root tree is never rebuilt.
func (k *PrivateKey) Sign(msg []byte, rng io.Reader) (Signature, error) {
	L := len(k.priv)

	d := -1
	for i := L - 1; i >= 0; i-- {
		if k.priv[i].Remaining() > 0 {
			d = i
			break
		}
	}
	if d < 0 {
		return Signature{}, common.NewFailure("Sign(): HSS private key exhausted")
	}

	for i := d + 1; i < L; i++ {
		rebuilt, err := lms.NewPrivateKeyWithThreads(k.levels[i].LmsType, k.levels[i].OtsType, k.Threads)
		if err != nil {
			return Signature{}, err
		}
		k.priv[i] = rebuilt
		k.pub[i] = k.priv[i].Public()

		linkSig, err := k.priv[i-1].Sign(k.pub[i].ToBytes(), rng)
		if err != nil {
			return Signature{}, err
		}
		k.sig[i-1] = linkSig
	}

	final, err := k.priv[L-1].Sign(msg, rng)
	if err != nil {
		return Signature{}, err
	}

	links := make([]signatureLink, L-1)
	for i := 0; i < L-1; i++ {
		links[i] = signatureLink{sig: k.sig[i], pub: k.pub[i+1]}
	}

	return Signature{
		nspk:  uint32(L - 1),
		links: links,
		final: final,
	}, nil
}
