package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-gateway/internal/attachment"
	"chat-gateway/internal/credentials"
)

type mockTranscriber struct {
	text      string
	err       error
	callCount int
	audio     []byte
	filename  string
}

func (m *mockTranscriber) Transcribe(_ context.Context, audio io.Reader, filename string) (string, error) {
	m.callCount++
	m.audio, _ = io.ReadAll(audio)
	m.filename = filename
	return m.text, m.err
}

func TestNewTranscribeService_NilTranscriber(t *testing.T) {
	_, err := NewTranscribeService(nil)
	require.Error(t, err)
}

func TestTranscribe_HappyPath(t *testing.T) {
	tr := &mockTranscriber{text: "hello there"}
	svc, err := NewTranscribeService(tr)
	require.NoError(t, err)

	text, err := svc.Transcribe(context.Background(), &attachment.Upload{
		Filename:    "note.webm",
		ContentType: "audio/webm",
		Data:        []byte("opus bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, "hello there", text)
	require.Equal(t, 1, tr.callCount)
	require.Equal(t, "note.webm", tr.filename)
	require.Equal(t, []byte("opus bytes"), tr.audio)
}

func TestTranscribe_EmptyUpload(t *testing.T) {
	tr := &mockTranscriber{}
	svc, err := NewTranscribeService(tr)
	require.NoError(t, err)

	_, err = svc.Transcribe(context.Background(), nil)
	expectError(t, err, StageParsing, "audio_unreadable")
	require.Zero(t, tr.callCount)
}

func TestTranscribe_UpstreamFailure(t *testing.T) {
	tr := &mockTranscriber{err: errors.New("decode failed")}
	svc, err := NewTranscribeService(tr)
	require.NoError(t, err)

	_, err = svc.Transcribe(context.Background(), &attachment.Upload{Data: []byte("x")})
	expectError(t, err, StageUpstream, "transcription_failed")
}

func TestTranscribe_MissingCredential(t *testing.T) {
	tr := &mockTranscriber{err: &credentials.Missing{Name: "OPENAI_API_KEY"}}
	svc, err := NewTranscribeService(tr)
	require.NoError(t, err)

	_, err = svc.Transcribe(context.Background(), &attachment.Upload{Data: []byte("x")})
	expectError(t, err, StageValidation, "missing_credential")
}
