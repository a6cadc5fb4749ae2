package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-gateway/internal/credentials"
	"chat-gateway/internal/domain"
)

func TestNewTitleService_NilClient(t *testing.T) {
	_, err := NewTitleService(nil)
	require.Error(t, err)
}

func TestGenerateTitle_BuildsSummarizationPrompt(t *testing.T) {
	llm := &mockText{reply: "Trip Planning"}
	svc, err := NewTitleService(llm)
	require.NoError(t, err)

	title, err := svc.GenerateTitle(context.Background(), []domain.ChatMessage{
		{Role: "user", Content: "help me plan a trip"},
		{Role: "assistant", Content: "where to?"},
	})
	require.NoError(t, err)
	require.Equal(t, "Trip Planning", title)
	require.Equal(t, 1, llm.callCount)
	require.Equal(t, titleModel, llm.model)

	require.Len(t, llm.messages, 2)
	require.Equal(t, domain.RoleSystem, llm.messages[0].Role)
	require.Equal(t, domain.RoleUser, llm.messages[1].Role)
	require.Contains(t, llm.messages[1].Content, "user: help me plan a trip")
	require.Contains(t, llm.messages[1].Content, "assistant: where to?")
}

func TestGenerateTitle_StripsQuotesAndWhitespace(t *testing.T) {
	llm := &mockText{reply: "  \"Weekend Cooking\"  "}
	svc, err := NewTitleService(llm)
	require.NoError(t, err)

	title, err := svc.GenerateTitle(context.Background(), []domain.ChatMessage{{Role: "user", Content: "recipes"}})
	require.NoError(t, err)
	require.Equal(t, "Weekend Cooking", title)
}

func TestGenerateTitle_BlankCompletionFallsBack(t *testing.T) {
	llm := &mockText{reply: "  \"\"  "}
	svc, err := NewTitleService(llm)
	require.NoError(t, err)

	title, err := svc.GenerateTitle(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, fallbackTitle, title)
}

func TestGenerateTitle_EmptyMessages(t *testing.T) {
	llm := &mockText{}
	svc, err := NewTitleService(llm)
	require.NoError(t, err)

	_, err = svc.GenerateTitle(context.Background(), nil)
	expectError(t, err, StageValidation, "empty_messages")
	require.Zero(t, llm.callCount)
}

func TestGenerateTitle_UpstreamFailure(t *testing.T) {
	llm := &mockText{err: errors.New("rate limited")}
	svc, err := NewTitleService(llm)
	require.NoError(t, err)

	_, err = svc.GenerateTitle(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})
	expectError(t, err, StageUpstream, "title_generation_failed")
}

func TestGenerateTitle_MissingCredential(t *testing.T) {
	llm := &mockText{err: &credentials.Missing{Name: "OPENAI_API_KEY"}}
	svc, err := NewTitleService(llm)
	require.NoError(t, err)

	_, err = svc.GenerateTitle(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})
	expectError(t, err, StageValidation, "missing_credential")
}
