// Package persist layers durability over an hss.PrivateKey: an
// encrypted, authenticated on-disk container with frequency-based
// checkpointing and skip-ahead recovery.
package persist

import (
	"bytes"
	"encoding/binary"

	"github.com/trailofbits/hsslms-go/lms/common"
)

// magic identifies a container file. It is 14 bytes so that, together with
// the 4-byte format version that follows it, the header is exactly 18
// bytes, matching the persisted file layout's header(18B) field.
const magic = "LMS-HSS-KEYv1\x00"

const headerLen = len(magic) + 4 // 18

// fileFormatVersion is incremented whenever the container's on-disk layout
// changes in a way that breaks compatibility with older readers.
const fileFormatVersion uint32 = 1

// buildHeader returns the 18-byte header written at the start of every
// container file. It doubles as the AEAD associated data for the
// ciphertext that follows it.
func buildHeader() []byte {
	h := make([]byte, 0, headerLen)
	h = append(h, []byte(magic)...)
	var v [4]byte
	binary.BigEndian.PutUint32(v[:], fileFormatVersion)
	h = append(h, v[:]...)
	return h
}

// parseHeader validates that b begins with a well-formed header and
// returns it. A mismatched magic or unsupported version is a FAILURE, not
// an INVALID: this is an operational "wrong file or wrong reader", not a
// cryptographic check.
func parseHeader(b []byte) ([]byte, error) {
	if len(b) < headerLen {
		return nil, common.NewFailure("persist: file is too short to contain a header")
	}
	header := b[:headerLen]
	if !bytes.Equal(header[:len(magic)], []byte(magic)) {
		return nil, common.NewFailure("persist: file magic does not match, this is not an hsslms-go key file")
	}
	version := binary.BigEndian.Uint32(header[len(magic):headerLen])
	if version != fileFormatVersion {
		return nil, common.NewFailure("persist: unsupported file format version %d", version)
	}
	return header, nil
}
