package asm

import (
	"encoding/binary"
	"unicode/utf16"
)

// byteVector is an append-only big-endian buffer.
type byteVector struct {
	data []byte
}

func (b *byteVector) len() int { return len(b.data) }

func (b *byteVector) putByte(v int) *byteVector {
	b.data = append(b.data, byte(v))
	return b
}

func (b *byteVector) putShort(v int) *byteVector {
	b.data = binary.BigEndian.AppendUint16(b.data, uint16(v))
	return b
}

func (b *byteVector) putInt(v int) *byteVector {
	b.data = binary.BigEndian.AppendUint32(b.data, uint32(v))
	return b
}

func (b *byteVector) putLong(v int64) *byteVector {
	b.data = binary.BigEndian.AppendUint64(b.data, uint64(v))
	return b
}

func (b *byteVector) put11(op, v int) *byteVector {
	return b.putByte(op).putByte(v)
}

func (b *byteVector) put12(op, v int) *byteVector {
	return b.putByte(op).putShort(v)
}

func (b *byteVector) putBytes(p []byte) *byteVector {
	b.data = append(b.data, p...)
	return b
}

// setShort overwrites two bytes at pos.
func (b *byteVector) setShort(pos, v int) {
	binary.BigEndian.PutUint16(b.data[pos:], uint16(v))
}

// encodeModifiedUtf8 encodes s the way the JVM stores Utf8 constants: NUL as
// two bytes and code points above U+FFFF as surrogate pairs of three bytes each.
func encodeModifiedUtf8(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		units := []uint16{uint16(r)}
		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			units = []uint16{uint16(hi), uint16(lo)}
		}
		for _, c := range units {
			switch {
			case c >= 0x01 && c <= 0x7F:
				out = append(out, byte(c))
			case c <= 0x7FF:
				out = append(out, byte(0xC0|c>>6&0x1F), byte(0x80|c&0x3F))
			default:
				out = append(out, byte(0xE0|c>>12&0x0F), byte(0x80|c>>6&0x3F), byte(0x80|c&0x3F))
			}
		}
	}
	if len(out) > 0xFFFF {
		return nil, ErrStringTooLong
	}
	return out, nil
}
