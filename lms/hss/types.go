// Package hss implements the Hierarchical Signature System (HSS) composition
// of LMS trees (RFC 8554).
package hss

import (
	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/lms"
)

// LevelParam names the LMS and LM-OTS algorithms used at one level of an
// HSS tree.
type LevelParam struct {
	LmsType common.LmsAlgorithmType
	OtsType common.LmsOtsAlgorithmType
}

// PrivateKey is a hierarchical stack of LMS private keys. Level 0 is the
// root tree and is never replaced; levels 1..L-1 are rebuilt on demand as
// their LMS trees run out of leaves.
type PrivateKey struct {
	Threads int
	levels  []LevelParam
	priv    []lms.LmsPrivateKey
	pub     []lms.LmsPublicKey // pub[i] is the public key for priv[i], cached for i in [1, L)
	sig     []lms.LmsSignature // sig[i] is priv[i].Sign(pub[i+1].ToBytes()), cached for i in [0, L-1)
}

// PublicKey is the root LMS public key plus the number of HSS levels.
type PublicKey struct {
	L   uint32
	pub lms.LmsPublicKey
}

// Signature is an HSS signature: a chain of intra-level LMS signatures over
// the next level's public key, followed by the signature over the message
// itself at the deepest level.
type Signature struct {
	nspk  uint32
	links []signatureLink
	final lms.LmsSignature
}

type signatureLink struct {
	sig lms.LmsSignature
	pub lms.LmsPublicKey
}
