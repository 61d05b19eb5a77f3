package restrict_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/hss"
	"github.com/trailofbits/hsslms-go/lms/restrict"
)

func twoLevelKey(t *testing.T) hss.PrivateKey {
	t.Helper()
	levels := []hss.LevelParam{
		{LmsType: common.LMS_SHA256_M32_H5, OtsType: common.LMOTS_SHA256_N32_W8},
		{LmsType: common.LMS_SHA256_M32_H5, OtsType: common.LMOTS_SHA256_N32_W8},
	}
	priv, err := hss.GenerateHssPrivateKey(levels, 1)
	if err != nil {
		t.Fatal(err)
	}
	return priv
}

func TestUnmarshalPrivateKeyRoundTrip(t *testing.T) {
	priv := twoLevelKey(t)
	pub := priv.Public()

	state := priv.MarshalState()
	restored, err := restrict.UnmarshalPrivateKey(state)
	assert.NoError(t, err)

	msg := []byte("a well regulated militia")
	sig, err := restored.Sign(msg, nil)
	assert.NoError(t, err)
	assert.True(t, pub.Verify(msg, sig))
}

func TestUnmarshalPrivateKeyRejectsUnknownTag(t *testing.T) {
	priv := twoLevelKey(t)
	state := priv.MarshalState()
	state[0] = 0xff
	_, err := restrict.UnmarshalPrivateKey(state)
	assert.Error(t, err)
	assert.True(t, common.IsFailure(err))
}

func TestUnmarshalPrivateKeyRejectsTruncatedInput(t *testing.T) {
	priv := twoLevelKey(t)
	state := priv.MarshalState()
	for _, n := range []int{0, 1, 5, 9, 13} {
		_, err := restrict.UnmarshalPrivateKey(state[:n])
		assert.Error(t, err)
		assert.True(t, common.IsFailure(err))
	}
}

func TestUnmarshalPrivateKeyRejectsTrailingData(t *testing.T) {
	priv := twoLevelKey(t)
	state := priv.MarshalState()
	state = append(state, 0x00)
	_, err := restrict.UnmarshalPrivateKey(state)
	assert.Error(t, err)
	assert.True(t, common.IsFailure(err))
}

func TestUnmarshalPrivateKeyRejectsMismatchedLevelParam(t *testing.T) {
	priv := twoLevelKey(t)
	state := priv.MarshalState()
	// Byte 13 is the tagLevelParam tag for the first level; byte 14 begins
	// its LMS typecode field.
	state[14] ^= 0xff
	_, err := restrict.UnmarshalPrivateKey(state)
	assert.Error(t, err)
	assert.True(t, common.IsFailure(err))
}
