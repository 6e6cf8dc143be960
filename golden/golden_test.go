package golden

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	assert.NoError(t, Compare([]byte{1, 2, 3}, []byte{1, 2, 3}))
	assert.NoError(t, Compare(nil, []byte{}))

	err := Compare([]byte{1, 2, 9, 4}, []byte{1, 2, 3, 4})
	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, &MismatchError{Offset: 2, GotLen: 4, WantLen: 4, Got: 9, Want: 3}, mismatch)
	assert.EqualError(t, err, "byte mismatch at offset 2 (0x0002): got 0x09, want 0x03 (got 4 bytes, want 4)")

	err = Compare([]byte{1, 2}, []byte{1, 2, 3})
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.Offset)
	assert.EqualError(t, err, "length mismatch: got 2 bytes, want 3 (common prefix 2 bytes)")

	err = Compare([]byte{7, 2, 3}, []byte{1})
	assert.EqualError(t, err, "byte mismatch at offset 0 (0x0000): got 0x07, want 0x01 (got 3 bytes, want 1)")
}
