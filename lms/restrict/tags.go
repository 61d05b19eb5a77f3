// Package restrict implements a restricted deserializer for the byte format
// lms/hss.PrivateKey.MarshalState produces. It replaces a general-purpose
// decoder (encoding/gob, or anything with a "construct arbitrary type from
// bytes" escape hatch) with a flat, whitelisted grammar: every record is a
// one-byte tag from a fixed set, walked in a fixed order, with no path that
// constructs anything other than the record types the tags below name.
package restrict

// Tags identifying each record in the byte stream. These must match the
// corresponding unexported constants in lms/hss/private.go exactly; they
// define the wire grammar this package is willing to decode.
const (
	tagHssPrivateKey byte = 0x01
	tagLevelParam    byte = 0x02
	tagLmsPrivateKey byte = 0x03
	tagLmsPublicKey  byte = 0x04
	tagLmsSignature  byte = 0x05
)

const stateFormatVersion uint32 = 1
