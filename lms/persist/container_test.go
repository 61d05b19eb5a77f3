package persist_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/hss"
	"github.com/trailofbits/hsslms-go/lms/persist"
)

func testLevels() []hss.LevelParam {
	return []hss.LevelParam{
		{LmsType: common.LMS_SHA256_M32_H5, OtsType: common.LMOTS_SHA256_N32_W8},
	}
}

func TestCreateSignLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.key")
	password := []byte("correct horse battery staple")

	priv, err := hss.GenerateHssPrivateKey(testLevels(), 1)
	assert.NoError(t, err)
	pub := priv.Public()

	c, err := persist.Create(path, 1, password, priv)
	assert.NoError(t, err)

	msg := []byte("to provide for the common defence")
	sig, err := c.Sign(msg, nil)
	assert.NoError(t, err)
	assert.True(t, pub.Verify(msg, sig))
	assert.NoError(t, c.Close())

	reopened, err := persist.Open(path, password)
	assert.NoError(t, err)
	defer reopened.Close()

	msg2 := []byte("and secure the blessings of liberty")
	sig2, err := reopened.Sign(msg2, nil)
	assert.NoError(t, err)
	assert.True(t, pub.Verify(msg2, sig2))
}

func TestCreateRefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.key")
	password := []byte("hunter2")

	priv, err := hss.GenerateHssPrivateKey(testLevels(), 1)
	assert.NoError(t, err)

	c, err := persist.Create(path, 1, password, priv)
	assert.NoError(t, err)
	assert.NoError(t, c.Close())

	priv2, err := hss.GenerateHssPrivateKey(testLevels(), 1)
	assert.NoError(t, err)
	_, err = persist.Create(path, 1, password, priv2)
	assert.Error(t, err)
	assert.True(t, common.IsFailure(err))
}

func TestOpenWithWrongPasswordFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.key")

	priv, err := hss.GenerateHssPrivateKey(testLevels(), 1)
	assert.NoError(t, err)

	c, err := persist.Create(path, 1, []byte("correct password"), priv)
	assert.NoError(t, err)
	assert.NoError(t, c.Close())

	_, err = persist.Open(path, []byte("wrong password"))
	assert.Error(t, err)
	assert.True(t, common.IsFailure(err))
}

func TestOpenReadOnlyRejectsSignAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.key")
	password := []byte("read only please")

	priv, err := hss.GenerateHssPrivateKey(testLevels(), 1)
	assert.NoError(t, err)
	pub := priv.Public()

	c, err := persist.Create(path, 1, password, priv)
	assert.NoError(t, err)
	assert.NoError(t, c.Close())

	ro, err := persist.OpenReadOnly(path, password)
	assert.NoError(t, err)

	assert.Equal(t, pub.L, ro.Public().L)

	_, err = ro.Sign([]byte("should not be allowed"), nil)
	assert.Error(t, err)
	assert.True(t, common.IsFailure(err))

	assert.Error(t, ro.Save())
	assert.NoError(t, ro.Close())

	// A concurrent writer must still be able to take the lock: OpenReadOnly
	// never acquired it.
	writer, err := persist.Open(path, password)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())
}

func TestSkipAheadBurnsLeavesOnReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.key")
	password := []byte("frequency four")

	priv, err := hss.GenerateHssPrivateKey(testLevels(), 1)
	assert.NoError(t, err)

	const frequency = 4
	c, err := persist.Create(path, frequency, password, priv)
	assert.NoError(t, err)

	// Sign fewer than `frequency` messages, so no flush happens and the
	// on-disk leaf index lags behind the in-memory one.
	for i := 0; i < 3; i++ {
		_, err := c.Sign([]byte{byte(i)}, nil)
		assert.NoError(t, err)
	}
	assert.NoError(t, c.Close())

	reopened, err := persist.Open(path, password)
	assert.NoError(t, err)
	defer reopened.Close()

	pub := reopened.Public()
	msg := []byte("skip-ahead recovered")
	sig, err := reopened.Sign(msg, nil)
	assert.NoError(t, err)
	assert.True(t, pub.Verify(msg, sig))
}
