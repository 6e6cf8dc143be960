package example

import (
	"fmt"
	"strings"
)

// Variant selects one of the two recorded replay programs.
type Variant string

const (
	// Shortcut jumps from line 6 straight into the tail of the first
	// catch block.
	Shortcut Variant = "shortcut"
	// Straight omits that jump; line 6 falls through into the try block.
	Straight Variant = "straight"
)

var Variants = []Variant{Shortcut, Straight}

func (v Variant) String() string {
	return string(v)
}

func ParseVariant(name string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(name, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q (want one of %s)", name, VariantNames())
}

func VariantNames() string {
	names := make([]string, len(Variants))
	for i, v := range Variants {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// ClassName is the internal name of the generated class.
const ClassName = "example/Example"

// ClassPath is where the class file lives relative to an output root.
const ClassPath = "example/Example.class"
