// Package filestore persists synthesized speech audio on local disk. Each
// write gets a fresh per-request key, so concurrent syntheses never clobber
// each other's output.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultPublicPrefix is the URL path under which stored audio is served.
const DefaultPublicPrefix = "/api/audio/speech"

// Local stores audio files under a single directory and maps keys onto
// public download paths.
type Local struct {
	dir          string
	publicPrefix string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir, publicPrefix string) (*Local, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("filestore: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create directory: %w", err)
	}
	publicPrefix = strings.TrimRight(strings.TrimSpace(publicPrefix), "/")
	if publicPrefix == "" {
		publicPrefix = DefaultPublicPrefix
	}
	return &Local{dir: dir, publicPrefix: publicPrefix}, nil
}

// SaveSpeech writes the audio bytes under a fresh key and returns the public
// download path for that key.
func (s *Local) SaveSpeech(_ context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("filestore: audio must not be empty")
	}
	key := "speech-" + uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.dir, key), audio, 0o644); err != nil {
		return "", fmt.Errorf("filestore: write audio: %w", err)
	}
	return path.Join(s.publicPrefix, key), nil
}

// Open returns a reader over a previously stored key. Keys are validated as
// bare filenames so a download route cannot traverse outside the store.
func (s *Local) Open(key string) (io.ReadCloser, error) {
	if key == "" || key != filepath.Base(key) || strings.Contains(key, "..") {
		return nil, fmt.Errorf("filestore: invalid key %q", key)
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("filestore: open %q: %w", key, err)
	}
	return f, nil
}
