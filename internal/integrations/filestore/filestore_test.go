package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveSpeech_WritesUniqueKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	first, err := store.SaveSpeech(context.Background(), []byte("audio-1"))
	require.NoError(t, err)
	second, err := store.SaveSpeech(context.Background(), []byte("audio-2"))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, strings.HasPrefix(first, DefaultPublicPrefix+"/speech-"))
	require.True(t, strings.HasSuffix(first, ".mp3"))
}

func TestSaveSpeech_RoundTripThroughOpen(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/audio")
	require.NoError(t, err)

	publicPath, err := store.SaveSpeech(context.Background(), []byte("mp3-bytes"))
	require.NoError(t, err)
	require.Equal(t, "/audio", path.Dir(publicPath))

	r, err := store.Open(path.Base(publicPath))
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "mp3-bytes", string(b))
}

func TestSaveSpeech_RejectsEmptyAudio(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.SaveSpeech(context.Background(), nil)
	require.Error(t, err)
}

func TestOpen_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.mp3"), []byte("x"), 0o644))
	store, err := NewLocal(dir, "")
	require.NoError(t, err)

	_, err = store.Open("../ok.mp3")
	require.Error(t, err)
	_, err = store.Open("")
	require.Error(t, err)
	_, err = store.Open("missing.mp3")
	require.Error(t, err)
}

func TestNewLocal_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "audio")
	_, err := NewLocal(dir, "")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNewLocal_EmptyDir(t *testing.T) {
	_, err := NewLocal("  ", "")
	require.Error(t, err)
}
