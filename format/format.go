package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/jasm/classfile"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(cf *classfile.ClassFile) error
}

// Names lists the formats accepted by NewEncoder.
var Names = []string{"text", "json", "yaml", "line"}

func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "text", "":
		return NewTextEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	case "line":
		return NewLineEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

// write marshals with m and copies the result to w.
func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
