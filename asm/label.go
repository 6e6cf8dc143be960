package asm

import "fmt"

type forwardRef struct {
	opcodePos int // offset of the jump instruction
	patchPos  int // offset of its 16-bit operand
}

// Label marks a position in a method's code. Jumps to a label that has not
// been visited yet are patched once the label is placed.
type Label struct {
	offset   int
	resolved bool
	refs     []forwardRef
}

func NewLabel() *Label {
	return &Label{}
}

// Offset returns the bytecode offset of a visited label.
func (l *Label) Offset() (int, bool) {
	return l.offset, l.resolved
}

func (l *Label) String() string {
	if !l.resolved {
		return "L?"
	}
	return fmt.Sprintf("L@%d", l.offset)
}

// put writes the branch operand for a jump at opcodePos, recording a forward
// reference when the label is not yet placed.
func (l *Label) put(code *byteVector, opcodePos int) error {
	if l.resolved {
		return putBranch(code, -1, opcodePos, l.offset)
	}
	l.refs = append(l.refs, forwardRef{opcodePos: opcodePos, patchPos: code.len()})
	code.putShort(0)
	return nil
}

func (l *Label) resolve(code *byteVector, offset int) error {
	if l.resolved {
		return ErrLabelVisitedTwice
	}
	l.offset = offset
	l.resolved = true
	var err error
	for _, ref := range l.refs {
		if perr := putBranch(code, ref.patchPos, ref.opcodePos, offset); perr != nil && err == nil {
			err = perr
		}
	}
	l.refs = nil
	return err
}

// putBranch writes target-source at patchPos, or appends it when patchPos is -1.
func putBranch(code *byteVector, patchPos, source, target int) error {
	delta := target - source
	if delta < -32768 || delta > 32767 {
		return fmt.Errorf("%w: %d", ErrBranchOffset, delta)
	}
	if patchPos < 0 {
		code.putShort(delta)
	} else {
		code.setShort(patchPos, delta)
	}
	return nil
}
