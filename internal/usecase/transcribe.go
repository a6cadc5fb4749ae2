package usecase

import (
	"context"
	"errors"
	"io"

	"chat-gateway/internal/attachment"
)

// Transcriber turns a recorded audio stream into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// TranscribeService is the separate speech-to-text path. It shares the
// staged error taxonomy with the dispatcher but none of its routing.
type TranscribeService struct {
	transcriber Transcriber
}

func NewTranscribeService(tr Transcriber) (*TranscribeService, error) {
	if tr == nil {
		return nil, errors.New("usecase: transcriber must not be nil")
	}
	return &TranscribeService{transcriber: tr}, nil
}

func (s *TranscribeService) Transcribe(ctx context.Context, upload *attachment.Upload) (string, error) {
	audio, filename, err := attachment.AudioStream(upload)
	if err != nil {
		return "", newError(StageParsing, "audio_unreadable", err)
	}
	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", wrapAdapterError("transcription_failed", err)
	}
	return text, nil
}
