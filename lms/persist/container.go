// This file implements the encrypted, lockfile-guarded on-disk container
// that wraps an hss.PrivateKey with durability.
package persist

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/nightlyone/lockfile"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/hss"
	"github.com/trailofbits/hsslms-go/lms/restrict"
)

// Container is an HSS private key backed by a single encrypted file. Only
// one process may hold it open for writing at a time, enforced by a
// sibling ".lock" file.
type Container struct {
	Path      string
	Frequency uint32

	inner     hss.PrivateKey
	signCount uint64
	lock      lockfile.Lockfile
	key       [32]byte
	salt      []byte
	readOnly  bool
	mu        sync.Mutex
}

func acquireLock(path string) (lockfile.Lockfile, error) {
	lock, err := lockfile.New(path + ".lock")
	if err != nil {
		return lockfile.Lockfile{}, common.WrapFailure(err, "persist: failed to create lockfile for %s", path)
	}
	if err := lock.TryLock(); err != nil {
		return lockfile.Lockfile{}, common.WrapFailure(err, "persist: %s is locked by another process", path)
	}
	return lock, nil
}

// Create initializes a new container at path, wrapping priv, and writes
// its first flush immediately. It refuses to overwrite an existing file.
func Create(path string, frequency uint32, password []byte, priv hss.PrivateKey) (*Container, error) {
	if frequency == 0 {
		return nil, common.NewFailure("persist: frequency must be at least 1")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, common.NewFailure("persist: %s already exists", path)
	}

	lock, err := acquireLock(path)
	if err != nil {
		return nil, err
	}

	salt, err := newSalt()
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	c := &Container{
		Path:      path,
		Frequency: frequency,
		inner:     priv,
		lock:      lock,
		key:       deriveKey(password, salt),
		salt:      salt,
	}

	if err := c.save(); err != nil {
		lock.Unlock()
		return nil, err
	}
	return c, nil
}

// decodedContainer holds the fields recovered by decrypting and parsing a
// container file, before any lock or skip-ahead recovery has been applied.
type decodedContainer struct {
	frequency uint32
	inner     hss.PrivateKey
	key       [32]byte
	salt      []byte
}

// decodeFile reads, decrypts, and parses the container at path. It performs
// no locking and no skip-ahead recovery; callers decide whether the result
// is safe to sign with.
func decodeFile(path string, password []byte) (decodedContainer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return decodedContainer{}, common.WrapFailure(err, "persist: failed to read %s", path)
	}

	header, err := parseHeader(raw)
	if err != nil {
		return decodedContainer{}, err
	}
	rest := raw[headerLen:]
	if len(rest) < saltLen+chacha20poly1305.NonceSize {
		return decodedContainer{}, common.NewFailure("persist: %s is truncated", path)
	}
	salt := rest[:saltLen]
	nonce := rest[saltLen : saltLen+chacha20poly1305.NonceSize]
	ciphertext := rest[saltLen+chacha20poly1305.NonceSize:]

	key := deriveKey(password, salt)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return decodedContainer{}, common.WrapFailure(err, "persist: failed to construct AEAD cipher")
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return decodedContainer{}, common.WrapFailure(err, "persist: wrong password or corrupted file")
	}

	if len(plaintext) < 4 {
		return decodedContainer{}, common.NewFailure("persist: decrypted state is too short")
	}
	frequency := binary.BigEndian.Uint32(plaintext[0:4])
	if frequency == 0 {
		return decodedContainer{}, common.NewFailure("persist: persisted frequency must be at least 1")
	}
	inner, err := restrict.UnmarshalPrivateKey(plaintext[4:])
	if err != nil {
		return decodedContainer{}, err
	}

	return decodedContainer{
		frequency: frequency,
		inner:     inner,
		key:       key,
		salt:      append([]byte(nil), salt...),
	}, nil
}

// Open reads and decrypts the container at path, then performs
// Frequency-1 skip-ahead signatures of an empty message to burn leaves
// that may have been emitted between the last flush and a crash. It holds
// the container's lockfile for the rest of the process's use of it, so
// only one writer may have a path open via Open at a time. Callers that
// only need to inspect the key (never sign or flush) should use
// OpenReadOnly instead, which takes no lock and skips recovery.
func Open(path string, password []byte) (*Container, error) {
	lock, err := acquireLock(path)
	if err != nil {
		return nil, err
	}

	dec, err := decodeFile(path, password)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	c := &Container{
		Path:      path,
		Frequency: dec.frequency,
		inner:     dec.inner,
		lock:      lock,
		key:       dec.key,
		salt:      dec.salt,
	}

	for i := uint32(0); i < dec.frequency-1; i++ {
		if _, err := c.inner.Sign(nil, zeroReader{}); err != nil {
			lock.Unlock()
			return nil, common.AsFailure(err, "persist: skip-ahead signing failed while recovering %s", path)
		}
	}

	return c, nil
}

// OpenReadOnly reads and decrypts the container at path without taking its
// lockfile and without performing skip-ahead recovery. The result must not
// be used to Sign or Save: both return a FailureError. It exists for
// metadata commands (sk-info) that only need the public key and checkpoint
// frequency and should not contend with, or block, a concurrent writer.
func OpenReadOnly(path string, password []byte) (*Container, error) {
	dec, err := decodeFile(path, password)
	if err != nil {
		return nil, err
	}
	return &Container{
		Path:      path,
		Frequency: dec.frequency,
		inner:     dec.inner,
		key:       dec.key,
		salt:      dec.salt,
		readOnly:  true,
	}, nil
}

// Sign produces an HSS signature over msg, flushing to disk synchronously
// before returning whenever the running signature count is a multiple of
// Frequency. A flush failure aborts the sign and is returned to the
// caller; the signature has already been consumed from the in-memory key,
// so the on-disk ".bak" file (if present) is the caller's recovery point.
func (c *Container) Sign(msg []byte, rng io.Reader) (hss.Signature, error) {
	if c.readOnly {
		return hss.Signature{}, common.NewFailure("persist: %s was opened read-only", c.Path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sig, err := c.inner.Sign(msg, rng)
	if err != nil {
		return hss.Signature{}, err
	}

	c.signCount++
	if c.signCount%uint64(c.Frequency) == 0 {
		if err := c.save(); err != nil {
			return hss.Signature{}, err
		}
	}

	return sig, nil
}

// Public returns the wrapped key's HSS public key.
func (c *Container) Public() hss.PublicKey {
	return c.inner.Public()
}

// Close releases the container's lockfile. It does not flush; callers
// that need a final checkpoint should call Save first. A container opened
// with OpenReadOnly holds no lockfile, so Close is a no-op for it.
func (c *Container) Close() error {
	if c.readOnly {
		return nil
	}
	if err := c.lock.Unlock(); err != nil {
		return common.WrapFailure(err, "persist: failed to release lockfile for %s", c.Path)
	}
	return nil
}

// Save performs an out-of-band flush, independent of Frequency.
func (c *Container) Save() error {
	if c.readOnly {
		return common.NewFailure("persist: %s was opened read-only", c.Path)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save()
}

// save implements the 5-step atomic-replace flush protocol. The caller
// must hold c.mu.
func (c *Container) save() error {
	common.Logf("persist: flushing %s", c.Path)

	bakPath := c.Path + ".bak"
	if err := os.Rename(c.Path, bakPath); err != nil && !os.IsNotExist(err) {
		return common.WrapFailure(err, "persist: failed to rename %s to %s", c.Path, bakPath)
	}

	var state []byte
	var u32_be [4]byte
	binary.BigEndian.PutUint32(u32_be[:], c.Frequency)
	state = append(state, u32_be[:]...)
	state = append(state, c.inner.MarshalState()...)

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return common.WrapFailure(err, "persist: failed to read randomness for nonce")
	}

	aead, err := chacha20poly1305.New(c.key[:])
	if err != nil {
		return common.WrapFailure(err, "persist: failed to construct AEAD cipher")
	}

	header := buildHeader()
	ciphertext := aead.Seal(nil, nonce, state, header)

	var out []byte
	out = append(out, header...)
	out = append(out, c.salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	tmpPath := c.Path + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0600); err != nil {
		return common.WrapFailure(err, "persist: failed to write %s", tmpPath)
	}
	if err := os.Rename(tmpPath, c.Path); err != nil {
		return common.WrapFailure(err, "persist: failed to replace %s", c.Path)
	}

	if err := os.Remove(bakPath); err != nil && !os.IsNotExist(err) {
		return common.WrapFailure(err, "persist: failed to remove stale backup %s", bakPath)
	}
	return nil
}

// zeroReader supplies deterministic randomness for the skip-ahead
// signatures drawn while recovering a container: their output is
// discarded, so no entropy is needed, only a source that never errors.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
