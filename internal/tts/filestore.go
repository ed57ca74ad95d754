package tts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// audio file names are uuid.mp3, nothing else. Anything that does not
// match is rejected before touching the filesystem.
var audioNamePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.mp3$`)

// FileStore holds synthesized audio as transient files: each file is
// written once, streamed back once, and deleted.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audio dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Put writes audio bytes under a fresh generated name and returns the name.
func (s *FileStore) Put(audio []byte) (string, error) {
	name := uuid.New().String() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.dir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("writing audio file: %w", err)
	}
	return name, nil
}

// Open returns the full path for a stored name, validating the name shape
// so a crafted value cannot escape the audio directory.
func (s *FileStore) Open(name string) (string, error) {
	if !audioNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid audio name %q", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}
	return path, nil
}

// Remove deletes a stored file. Missing files are not an error; the
// stream-then-delete flow may race a cleanup.
func (s *FileStore) Remove(name string) error {
	if !audioNamePattern.MatchString(name) {
		return fmt.Errorf("invalid audio name %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing audio file: %w", err)
	}
	return nil
}
