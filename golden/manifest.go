package golden

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Entry records one emitted class file.
type Entry struct {
	Variant string `cbor:"variant" json:"variant" yaml:"variant"`
	Class   string `cbor:"class" json:"class" yaml:"class"`
	Path    string `cbor:"path" json:"path" yaml:"path"`
	Size    int    `cbor:"size" json:"size" yaml:"size"`
	SHA256  string `cbor:"sha256" json:"sha256" yaml:"sha256"`
}

func NewEntry(variant, class, path string, data []byte) Entry {
	return Entry{
		Variant: variant,
		Class:   class,
		Path:    path,
		Size:    len(data),
		SHA256:  digest(data),
	}
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Check reports whether data is the class file the entry describes.
func (e Entry) Check(data []byte) error {
	if len(data) != e.Size {
		return fmt.Errorf("%s: size %d does not match recorded %d", e.Path, len(data), e.Size)
	}
	if got := digest(data); got != e.SHA256 {
		return fmt.Errorf("%s: sha256 %s does not match recorded %s", e.Path, got, e.SHA256)
	}
	return nil
}

// Manifest lists the class files written by emit, keyed by variant.
type Manifest struct {
	Entries []Entry `cbor:"entries"`
}

// manifestWire drops the Manifest methods so cbor encodes the struct fields
// instead of calling back into MarshalBinary.
type manifestWire Manifest

// Put adds the entry, replacing any entry for the same variant.
func (m *Manifest) Put(e Entry) {
	for i := range m.Entries {
		if m.Entries[i].Variant == e.Variant {
			m.Entries[i] = e
			return
		}
	}
	m.Entries = append(m.Entries, e)
	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Variant < m.Entries[j].Variant
	})
}

func (m *Manifest) Lookup(variant string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Variant == variant {
			return e, true
		}
	}
	return Entry{}, false
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func (m *Manifest) MarshalBinary() ([]byte, error) {
	return encMode.Marshal((*manifestWire)(m))
}

func (m *Manifest) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*manifestWire)(m))
}

// Load reads a manifest. A missing file is reported with an error wrapping
// os.ErrNotExist.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m := &Manifest{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) Save(path string) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
