package tts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_PutOpenRemove(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	name, err := fs.Put([]byte("mp3 bytes"))
	require.NoError(t, err)
	assert.Regexp(t, `\.mp3$`, name)

	path, err := fs.Open(name)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), data)

	require.NoError(t, fs.Remove(name))
	_, err = fs.Open(name)
	assert.Error(t, err)
}

func TestFileStore_RemoveMissingIsNotError(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, fs.Remove("0c33cbd2-9e75-4a55-a31c-9a7f0cc8b6b0.mp3"))
}

func TestFileStore_RejectsCraftedNames(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	// A file outside the uuid.mp3 shape must never be reachable.
	secret := filepath.Join(dir, "..", "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0o644))

	for _, name := range []string{
		"../secret.txt",
		"..%2Fsecret.txt",
		"secret.txt",
		"0c33cbd2-9e75-4a55-a31c-9a7f0cc8b6b0.wav",
		"0C33CBD2-9E75-4A55-A31C-9A7F0CC8B6B0.mp3",
		"",
	} {
		_, err := fs.Open(name)
		assert.Error(t, err, "name: %q", name)
		assert.Error(t, fs.Remove(name), "name: %q", name)
	}
}

func TestFileStore_NamesAreUnique(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		name, err := fs.Put(nil)
		require.NoError(t, err)
		assert.False(t, seen[name])
		seen[name] = true
	}
}
