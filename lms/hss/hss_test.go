package hss_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/hss"
)

func smallLevels(n int) []hss.LevelParam {
	levels := make([]hss.LevelParam, n)
	for i := range levels {
		levels[i] = hss.LevelParam{
			LmsType: common.LMS_SHA256_M32_H5,
			OtsType: common.LMOTS_SHA256_N32_W8,
		}
	}
	return levels
}

func TestSingleLevelSignVerifyRoundTrip(t *testing.T) {
	priv, err := hss.GenerateHssPrivateKey(smallLevels(1), 0)
	assert.NoError(t, err)

	pub := priv.Public()
	msg := []byte("the powers not delegated")

	sig, err := priv.Sign(msg, nil)
	assert.NoError(t, err)
	assert.True(t, pub.Verify(msg, sig))

	pubBytes := pub.ToBytes()
	pub2, err := hss.HssPublicKeyFromBytes(pubBytes)
	assert.NoError(t, err)
	assert.True(t, pub2.Verify(msg, sig))
}

func TestTwoLevelSignVerifyRoundTrip(t *testing.T) {
	priv, err := hss.GenerateHssPrivateKey(smallLevels(2), 1)
	assert.NoError(t, err)

	pub := priv.Public()
	assert.Equal(t, uint32(2), pub.L)

	msg := []byte("delegated to the states")
	sig, err := priv.Sign(msg, nil)
	assert.NoError(t, err)
	assert.True(t, pub.Verify(msg, sig))

	sigBytes, err := sig.ToBytes()
	assert.NoError(t, err)

	sig2, err := hss.HssSignatureFromBytes(sigBytes)
	assert.NoError(t, err)
	assert.True(t, pub.Verify(msg, sig2))
}

func TestLeafLevelRebuildOnExhaustion(t *testing.T) {
	levels := []hss.LevelParam{
		{LmsType: common.LMS_SHA256_M32_H5, OtsType: common.LMOTS_SHA256_N32_W8},
		{LmsType: common.LMS_SHA256_M32_H5, OtsType: common.LMOTS_SHA256_N32_W8},
	}
	priv, err := hss.GenerateHssPrivateKey(levels, 2)
	assert.NoError(t, err)
	pub := priv.Public()

	rootAvail := priv.Avail()

	// Sign enough messages to exhaust the leaf-level tree (2^5 = 32 leaves)
	// and force a rebuild of the leaf tree under a fresh parent signature.
	for i := 0; i < 40; i++ {
		msg := []byte{byte(i)}
		sig, err := priv.Sign(msg, nil)
		assert.NoError(t, err)
		assert.True(t, pub.Verify(msg, sig))
	}

	// Availability should have dropped from the initial count.
	assert.True(t, priv.Avail().Cmp(rootAvail) < 0)
}

func TestSignExhaustedRootReturnsFailure(t *testing.T) {
	priv, err := hss.GenerateHssPrivateKey(smallLevels(1), 0)
	assert.NoError(t, err)

	var lastErr error
	for i := 0; i < 33; i++ {
		_, lastErr = priv.Sign([]byte{byte(i)}, nil)
		if lastErr != nil {
			break
		}
	}
	assert.Error(t, lastErr)
	assert.True(t, common.IsFailure(lastErr))
}

func TestVerifyRejectsBitFlippedSignature(t *testing.T) {
	priv, err := hss.GenerateHssPrivateKey(smallLevels(1), 0)
	assert.NoError(t, err)
	pub := priv.Public()

	msg := []byte("or to the people")
	sig, err := priv.Sign(msg, nil)
	assert.NoError(t, err)

	sigBytes, err := sig.ToBytes()
	assert.NoError(t, err)
	sigBytes[len(sigBytes)-1] ^= 1

	sig2, err := hss.HssSignatureFromBytes(sigBytes)
	assert.NoError(t, err)
	assert.False(t, pub.Verify(msg, sig2))
}

func TestVerifyRejectsWrongLevelCount(t *testing.T) {
	priv, err := hss.GenerateHssPrivateKey(smallLevels(2), 0)
	assert.NoError(t, err)
	pub := priv.Public()
	pub.L = 3

	msg := []byte("reserved")
	sig, err := priv.Sign(msg, nil)
	assert.NoError(t, err)
	assert.False(t, pub.Verify(msg, sig))
}

func TestHssSignatureFromBytesShortInputReturnsError(t *testing.T) {
	for i := 0; i < 8; i++ {
		data := make([]byte, i)
		_, err := hss.HssSignatureFromBytes(data)
		assert.Error(t, err)
	}
}

func TestGenerateHssPrivateKeyRequiresAtLeastOneLevel(t *testing.T) {
	_, err := hss.GenerateHssPrivateKey(nil, 0)
	assert.Error(t, err)
	assert.True(t, common.IsFailure(err))
}
