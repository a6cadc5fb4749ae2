package usecase

import (
	"context"
	"errors"
	"strings"

	"chat-gateway/internal/domain"
)

const (
	titleModel    = "gpt-4o-mini"
	fallbackTitle = "New Chat"
)

// TitleService generates a short conversation title from the message
// history, for the chat list in the client.
type TitleService struct {
	llm TextCompleter
}

func NewTitleService(llm TextCompleter) (*TitleService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	return &TitleService{llm: llm}, nil
}

func (s *TitleService) GenerateTitle(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", newError(StageValidation, "empty_messages", nil)
	}
	raw, err := s.llm.Complete(ctx, titleModel, buildTitlePrompt(messages))
	if err != nil {
		return "", wrapAdapterError("title_generation_failed", err)
	}
	title := strings.Trim(strings.TrimSpace(raw), `"`)
	if title == "" {
		title = fallbackTitle
	}
	return title, nil
}

func buildTitlePrompt(messages []domain.ChatMessage) []domain.ChatMessage {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are a helpful assistant that generates concise chat titles."},
		{Role: domain.RoleUser, Content: "Generate a short, concise title for this conversation:\n\n" + strings.Join(lines, "\n")},
	}
}
