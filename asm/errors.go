package asm

import "errors"

var (
	ErrUnresolvedLabel      = errors.New("label is referenced but never visited")
	ErrLabelVisitedTwice    = errors.New("label visited twice")
	ErrInvalidOpcode        = errors.New("opcode not valid for this visit method")
	ErrUnsupportedValue     = errors.New("unsupported constant value")
	ErrFrameVersion         = errors.New("stack map frames require class version 50 or later")
	ErrInvalidFrame         = errors.New("invalid stack map frame")
	ErrBranchOffset         = errors.New("branch offset does not fit in 16 bits")
	ErrCodeTooLarge         = errors.New("method code exceeds 65535 bytes")
	ErrConstantPoolOverflow = errors.New("constant pool exceeds 65535 entries")
	ErrStringTooLong        = errors.New("encoded string exceeds 65535 bytes")
	ErrInvalidDescriptor    = errors.New("invalid method descriptor")
)
