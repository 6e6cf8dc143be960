package golden

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryCheck(t *testing.T) {
	data := []byte("class bytes")
	e := NewEntry("shortcut", "example/Example", "out/example/Example.class", data)
	assert.Equal(t, len(data), e.Size)
	assert.Len(t, e.SHA256, 64)
	assert.NoError(t, e.Check(data))

	assert.EqualError(t, e.Check([]byte("short")), "out/example/Example.class: size 5 does not match recorded 11")
	assert.ErrorContains(t, e.Check([]byte("class BYTES")), "sha256")
}

func TestManifestPut(t *testing.T) {
	var m Manifest
	m.Put(NewEntry("straight", "example/Example", "b", []byte{1}))
	m.Put(NewEntry("shortcut", "example/Example", "a", []byte{2}))
	m.Put(NewEntry("straight", "example/Example", "c", []byte{3, 4}))

	require.Len(t, m.Entries, 2)
	assert.Equal(t, "shortcut", m.Entries[0].Variant)
	assert.Equal(t, "straight", m.Entries[1].Variant)

	e, ok := m.Lookup("straight")
	require.True(t, ok)
	assert.Equal(t, "c", e.Path)
	assert.Equal(t, 2, e.Size)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestManifestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "manifest.cbor")

	m := &Manifest{}
	m.Put(NewEntry("shortcut", "example/Example", "example/Example.class", []byte("abc")))
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Save(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "canonical encoding is stable")
}

func TestManifestBinaryEncoding(t *testing.T) {
	m := &Manifest{}
	m.Put(NewEntry("straight", "example/Example", "example/Example.class", []byte{0xca, 0xfe}))

	data, err := m.MarshalBinary()
	require.NoError(t, err)

	var fields map[string][]map[string]any
	require.NoError(t, cbor.Unmarshal(data, &fields))
	require.Len(t, fields["entries"], 1)
	assert.Equal(t, "straight", fields["entries"][0]["variant"])

	decoded := &Manifest{}
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, m, decoded)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.cbor"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.cbor")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0x00}, 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to decode manifest")
}
