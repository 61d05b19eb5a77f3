// Package lms implements Leighton-Micali Hash-Based Signatures (RFC 8554)
//
// This file implements the private key and signing logic.
package lms

import (
	"context"
	"encoding/binary"
	"runtime"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/ots"

	"golang.org/x/sync/errgroup"

	"crypto/rand"
	"io"
)

// NewPrivateKey returns a LmsPrivateKey, seeded by a cryptographically secure
// random number generator.
func NewPrivateKey(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType) (LmsPrivateKey, error) {
	return NewPrivateKeyWithThreads(tc, otstc, 0)
}

// NewPrivateKeyWithThreads is NewPrivateKey, but the Merkle tree is built
// using up to threads goroutines. A threads value of 0 selects
// runtime.GOMAXPROCS(0).
func NewPrivateKeyWithThreads(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, threads int) (LmsPrivateKey, error) {
	var err error
	tc, err = tc.LmsType()
	if err != nil {
		return LmsPrivateKey{}, common.AsFailure(err, "NewPrivateKey(): unknown LMS parameter set")
	}
	params, err := tc.LmsParams()
	if err != nil {
		return LmsPrivateKey{}, common.AsFailure(err, "NewPrivateKey(): unknown LMS parameter set")
	}

	seed := make([]byte, params.M)
	_, err = rand.Read(seed)
	if err != nil {
		return LmsPrivateKey{}, common.WrapFailure(err, "NewPrivateKey(): failed to read randomness")
	}
	idbytes := make([]byte, common.ID_LEN)
	_, err = rand.Read(idbytes)
	if err != nil {
		return LmsPrivateKey{}, common.WrapFailure(err, "NewPrivateKey(): failed to read randomness")
	}
	id := common.ID(idbytes)

	return NewPrivateKeyFromSeedWithThreads(tc, otstc, id, seed, threads)
}

// NewPrivateKeyFromSeed returns a new LmsPrivateKey, using the algorithm from
// Appendix A of <https://datatracker.ietf.org/doc/html/rfc8554#appendix-A>
func NewPrivateKeyFromSeed(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, id common.ID, seed []byte) (LmsPrivateKey, error) {
	return NewPrivateKeyFromSeedWithThreads(tc, otstc, id, seed, 0)
}

// NewPrivateKeyFromSeedWithThreads is NewPrivateKeyFromSeed, but the Merkle
// tree is built using up to threads goroutines. A threads value of 0 selects
// runtime.GOMAXPROCS(0).
func NewPrivateKeyFromSeedWithThreads(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, id common.ID, seed []byte, threads int) (LmsPrivateKey, error) {
	tc, err := tc.LmsType()
	if err != nil {
		return LmsPrivateKey{}, common.AsFailure(err, "NewPrivateKeyFromSeed(): unknown LMS parameter set")
	}
	otstc, err = otstc.LmsOtsType()
	if err != nil {
		return LmsPrivateKey{}, common.AsFailure(err, "NewPrivateKeyFromSeed(): unknown LM-OTS parameter set")
	}
	tree, err := GeneratePKTree(tc, otstc, id, seed, threads)
	if err != nil {
		return LmsPrivateKey{}, err
	}
	return LmsPrivateKey{
		typecode: tc,
		otstype:  otstc,
		q:        0,
		id:       id,
		seed:     seed,
		authtree: tree,
	}, nil
}

// Public returns an LmsPublicKey that validates signatures for this private key
func (priv *LmsPrivateKey) Public() LmsPublicKey {
	return LmsPublicKey{
		typecode: priv.typecode,
		otstype:  priv.otstype,
		id:       priv.id,
		k:        priv.authtree[0],
	}
}

// Sign calculates the LMS signature of a chosen message.
// The rng argument is optional. If nil is provided, crypto/rand.Reader will be used.
func (priv *LmsPrivateKey) Sign(msg []byte, rng io.Reader) (LmsSignature, error) {
	if rng == nil {
		rng = rand.Reader
	}
	params, err := priv.typecode.LmsParams()
	if err != nil {
		return LmsSignature{}, common.AsFailure(err, "Sign(): unknown LMS parameter set")
	}
	height := int(params.H)
	var leaves uint32 = 1 << height
	if priv.q >= leaves {
		return LmsSignature{}, common.NewFailure("Sign(): private key exhausted, all %d leaves have been used", leaves)
	}
	ots_priv, err := ots.NewPrivateKeyFromSeed(priv.otstype, priv.q, priv.id, priv.seed)
	if err != nil {
		return LmsSignature{}, err
	}
	ots_sig, err := ots_priv.Sign(msg, rng)
	if err != nil {
		return LmsSignature{}, err
	}
	authpath := make([][]byte, params.H)

	var r uint32 = leaves + priv.q
	var temp uint32
	for i := 0; i < height; i++ {
		temp = (r >> i) ^ 1
		// We use x-1 because T[x] is indexed from 1, not 0, in the spec
		authpath[i] = priv.authtree[temp-1][:]
	}

	// We incremenet q to signal the this keys should not be reused
	priv.incrementQ()

	return LmsSignature{
		priv.typecode,
		priv.q - 1,
		ots_sig,
		authpath,
	}, nil
}

// Private
func (priv *LmsPrivateKey) incrementQ() {
	priv.q++
}

// ToBytes() serialized the private key into a byte string for storage.
// The current value of the internal counter, q, is included.
func (priv *LmsPrivateKey) ToBytes() []byte {
	var serialized []byte
	var u32_be [4]byte

	// First 4 bytes: typecode
	typecode, _ := priv.typecode.LmsType()
	// ToBytes() is only ever called on a valid object, so this will never return an error
	binary.BigEndian.PutUint32(u32_be[:], typecode.ToUint32())
	serialized = append(serialized, u32_be[:]...)

	// Next 4 bytes: OTS typecode
	otstype, _ := priv.otstype.LmsOtsType()
	// ToBytes() is only ever called on a valid object, so this will never return an error
	binary.BigEndian.PutUint32(u32_be[:], otstype.ToUint32())
	serialized = append(serialized, u32_be[:]...)

	// Next 4 bytes: q
	binary.BigEndian.PutUint32(u32_be[:], priv.q)
	serialized = append(serialized, u32_be[:]...)

	// Next 16 bytes: id
	serialized = append(serialized, priv.id[:]...)

	// Next M bytes: seed (32 for the M32 parameter sets, 24 for M24)
	serialized = append(serialized, priv.seed[:]...)

	// We don't need to serialize the authtree
	return serialized
}

// Retrieve the current value of the internal counter, q.
// Used for unit tests
func (priv *LmsPrivateKey) Q() uint32 {
	return priv.q
}

// Remaining returns the number of unused leaves (one-time signatures) left
// in this private key.
func (priv *LmsPrivateKey) Remaining() uint64 {
	params, err := priv.typecode.LmsParams()
	if err != nil {
		return 0
	}
	leaves := uint64(1) << params.H
	if uint64(priv.q) >= leaves {
		return 0
	}
	return leaves - uint64(priv.q)
}

// Typecode returns the LMS algorithm type of this private key.
func (priv *LmsPrivateKey) Typecode() common.LmsAlgorithmType {
	return priv.typecode
}

// OtsType returns the LM-OTS algorithm type used for this private key's leaves.
func (priv *LmsPrivateKey) OtsType() common.LmsOtsAlgorithmType {
	return priv.otstype
}

// LmsPrivateKeyFromBytes returns an LmsPrivateKey that represents b.
// This is the inverse of the ToBytes() method on the LmsPrivateKey object.
func LmsPrivateKeyFromBytes(b []byte) (LmsPrivateKey, error) {
	if len(b) < 8 {
		return LmsPrivateKey{}, common.NewInvalid("LmsPrivateKeyFromBytes(): input is too short")
	}

	// The typecode is bytes 0-3 (4 bytes)
	typecode, err := common.Uint32ToLmsType(binary.BigEndian.Uint32(b[0:4])).LmsType()
	if err != nil {
		return LmsPrivateKey{}, common.AsInvalid(err, "LmsPrivateKeyFromBytes(): unknown LMS typecode")
	}
	// The OTS typecode is bytes 4-7 (4 bytes)
	otstype, err := common.Uint32ToLmotsType(binary.BigEndian.Uint32(b[4:8])).LmsOtsType()
	if err != nil {
		return LmsPrivateKey{}, common.AsInvalid(err, "LmsPrivateKeyFromBytes(): unknown LM-OTS typecode")
	}
	lmsparams, err := typecode.LmsParams()
	if err != nil {
		return LmsPrivateKey{}, common.AsInvalid(err, "LmsPrivateKeyFromBytes(): unknown LMS typecode")
	}
	if len(b) < int(lmsparams.M+28) {
		return LmsPrivateKey{}, common.NewInvalid("LmsPrivateKeyFromBytes(): input is too short")
	}

	// Internal counter is bytes 8-11 (4 bytes)
	q := binary.BigEndian.Uint32(b[8:12])
	// ID is bytes 12-27 (16 bytes)
	id := common.ID(b[12:28])
	// Seed is bytes 28+ (32 bytes for SHA-256)
	seed_end := lmsparams.M + 28
	seed := b[28:seed_end]

	// Load private key, then set q to what was persisted
	privateKey, err := NewPrivateKeyFromSeed(typecode, otstype, id, seed)
	if err != nil {
		return LmsPrivateKey{}, err
	}
	privateKey.q = q
	return privateKey, nil
}

// GeneratePKTree generates the Merkle Tree needed to derive the public key and
// authentication path for any message. Leaf construction (one LM-OTS key pair
// per leaf) dominates the cost of the tree and is spread across threads
// goroutines; a threads value of 0 selects runtime.GOMAXPROCS(0). Each level
// of internal nodes is built only after the level below it is complete.
func GeneratePKTree(tc common.LmsAlgorithmType, otstc common.LmsOtsAlgorithmType, id common.ID, seed []byte, threads int) ([][]byte, error) {
	params, err := tc.LmsParams()
	if err != nil {
		return nil, common.AsFailure(err, "GeneratePKTree(): unknown LMS parameter set")
	}
	ots_params, err := otstc.Params()
	if err != nil {
		return nil, common.AsFailure(err, "GeneratePKTree(): unknown LM-OTS parameter set")
	}

	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	var tree_nodes uint32 = (1 << (params.H + 1)) - 1
	var leaves uint32 = 1 << params.H
	var authtree = make([][]byte, tree_nodes)

	common.Logf("GeneratePKTree(): building %d leaves across %d threads", leaves, threads)

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(threads)
	for i := uint32(0); i < leaves; i++ {
		i := i
		g.Go(func() error {
			r := i + leaves
			ots_priv, err := ots.NewPrivateKeyFromSeed(otstc, i, id, seed)
			if err != nil {
				return err
			}
			ots_pub, err := ots_priv.Public()
			if err != nil {
				return err
			}

			var r_be [4]byte
			binary.BigEndian.PutUint32(r_be[:], r)

			hasher := ots_params.H.New()
			common.HashWrite(hasher, id[:])
			common.HashWrite(hasher, r_be[:])
			common.HashWrite(hasher, common.D_LEAF[:])
			common.HashWrite(hasher, ots_pub.Key())
			authtree[r-1] = hasher.Sum(nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	common.Logf("GeneratePKTree(): leaf generation complete, building internal nodes")

	// Internal nodes are built bottom-up, one level at a time. Every node in
	// a level depends only on the level below it, so each level is itself
	// computed in parallel, with a barrier before the next level starts.
	for levelStart := leaves / 2; levelStart >= 1; levelStart /= 2 {
		levelStart := levelStart
		lg, _ := errgroup.WithContext(context.Background())
		lg.SetLimit(threads)
		for r := levelStart; r < levelStart*2; r++ {
			r := r
			lg.Go(func() error {
				var r_be [4]byte
				binary.BigEndian.PutUint32(r_be[:], r)

				hasher := ots_params.H.New()
				common.HashWrite(hasher, id[:])
				common.HashWrite(hasher, r_be[:])
				common.HashWrite(hasher, common.D_INTR[:])
				common.HashWrite(hasher, authtree[2*r-1])
				common.HashWrite(hasher, authtree[2*r])
				authtree[r-1] = hasher.Sum(nil)
				return nil
			})
		}
		if err := lg.Wait(); err != nil {
			return nil, err
		}
	}
	return authtree, nil
}
