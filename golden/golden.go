package golden

import (
	"bytes"
	"fmt"
)

// MismatchError reports where two class files stop agreeing.
type MismatchError struct {
	Offset  int
	GotLen  int
	WantLen int
	Got     byte
	Want    byte
}

func (e *MismatchError) Error() string {
	if e.Offset >= e.GotLen || e.Offset >= e.WantLen {
		return fmt.Sprintf("length mismatch: got %d bytes, want %d (common prefix %d bytes)", e.GotLen, e.WantLen, e.Offset)
	}
	return fmt.Sprintf("byte mismatch at offset %d (0x%04x): got 0x%02x, want 0x%02x (got %d bytes, want %d)",
		e.Offset, e.Offset, e.Got, e.Want, e.GotLen, e.WantLen)
}

// Compare returns nil when got and want are byte-for-byte equal, otherwise a
// *MismatchError describing the first difference.
func Compare(got, want []byte) error {
	if bytes.Equal(got, want) {
		return nil
	}
	n := min(len(got), len(want))
	offset := n
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			offset = i
			break
		}
	}
	err := &MismatchError{Offset: offset, GotLen: len(got), WantLen: len(want)}
	if offset < n {
		err.Got, err.Want = got[offset], want[offset]
	}
	return err
}
