package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chat-gateway/internal/attachment"
	"chat-gateway/internal/credentials"
	"chat-gateway/internal/domain"
)

// Placeholder replies accompanying non-text results.
const (
	imageConfirmation  = "Here is your generated image."
	speechConfirmation = "Here is your audio response."
)

// TextCompleter forwards a conversation to one provider's chat endpoint.
type TextCompleter interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// VisionCompleter forwards a conversation whose final message carries an
// image alongside its text.
type VisionCompleter interface {
	CompleteVision(ctx context.Context, model string, messages []domain.ChatMessage, image domain.ImageAttachment) (string, error)
}

// ImageGenerator turns a single prompt into a generated image URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// SpeechSynthesizer turns input text into synthesized audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, input string) ([]byte, error)
}

// SpeechStore persists synthesized audio and returns its download path.
type SpeechStore interface {
	SaveSpeech(ctx context.Context, audio []byte) (string, error)
}

// Adapters bundles the injected provider adapters the dispatcher routes to.
// Text and vision adapters are keyed by provider family; the addon adapters
// are singletons because the addon overrides model choice entirely.
type Adapters struct {
	Text   map[domain.Provider]TextCompleter
	Vision map[domain.Provider]VisionCompleter
	Images ImageGenerator
	Speech SpeechSynthesizer
	Store  SpeechStore
}

// ChatService validates an inbound conversation request, routes it to
// exactly one adapter by the fixed precedence order, and normalizes the
// adapter's output into a single result envelope. It holds no per-request
// state; concurrent calls are independent.
type ChatService struct {
	adapters Adapters
}

// ChatInput is one inbound conversation request. Attachment holds the raw
// upload; it is only decoded if the vision route is selected.
type ChatInput struct {
	Messages    []domain.ChatMessage
	Model       string
	Addon       string
	Attachment  *attachment.Upload
	DetachImage bool
}

// ChatOutput is the normalized result envelope. Response is always set; at
// most one of ImageURL/AudioURL is set, determined by the route that ran.
type ChatOutput struct {
	Response string
	ImageURL string
	AudioURL string
}

func NewChatService(a Adapters) (*ChatService, error) {
	if len(a.Text) == 0 {
		return nil, errors.New("usecase: at least one text adapter is required")
	}
	if a.Images == nil {
		return nil, errors.New("usecase: image generator must not be nil")
	}
	if a.Speech == nil {
		return nil, errors.New("usecase: speech synthesizer must not be nil")
	}
	if a.Store == nil {
		return nil, errors.New("usecase: speech store must not be nil")
	}
	return &ChatService{adapters: a}, nil
}

// Respond runs the pipeline for one request: validate, select exactly one
// adapter by precedence, invoke it, normalize. Addon routing is checked
// first; model-based routing only applies once no addon matched.
func (s *ChatService) Respond(ctx context.Context, in ChatInput) (ChatOutput, error) {
	addon, err := s.validate(in)
	if err != nil {
		return ChatOutput{}, err
	}

	switch addon {
	case domain.AddonImageGeneration:
		return s.generateImage(ctx, in)
	case domain.AddonSpeechSynthesis:
		return s.synthesizeSpeech(ctx, in)
	}

	model, ok := domain.LookupModel(in.Model)
	if !ok {
		return ChatOutput{}, newError(StageValidation, "unknown_model",
			fmt.Errorf("no adapter for model %q with addon %q", in.Model, in.Addon))
	}
	if model.Vision && in.Attachment != nil && !in.DetachImage {
		return s.completeVision(ctx, model, in)
	}
	return s.completeText(ctx, model, in)
}

func (s *ChatService) validate(in ChatInput) (domain.Addon, error) {
	if len(in.Messages) == 0 {
		return domain.AddonNone, newError(StageValidation, "empty_messages", nil)
	}
	for i, m := range in.Messages {
		if !domain.ValidRole(m.Role) {
			return domain.AddonNone, newError(StageValidation, "invalid_role",
				fmt.Errorf("message %d has role %q", i, m.Role))
		}
		if m.Role != domain.RoleSystem && strings.TrimSpace(m.Content) == "" {
			return domain.AddonNone, newError(StageValidation, "empty_content",
				fmt.Errorf("message %d has no content", i))
		}
	}
	if strings.TrimSpace(in.Model) == "" {
		return domain.AddonNone, newError(StageValidation, "empty_model", nil)
	}
	addon, ok := domain.ParseAddon(in.Addon)
	if !ok {
		return domain.AddonNone, newError(StageValidation, "unknown_addon",
			fmt.Errorf("addon %q is not recognized", in.Addon))
	}
	return addon, nil
}

// generateImage uses only the most recent message as the prompt; earlier
// history is irrelevant to this addon.
func (s *ChatService) generateImage(ctx context.Context, in ChatInput) (ChatOutput, error) {
	prompt := strings.TrimSpace(in.Messages[len(in.Messages)-1].Content)
	if prompt == "" {
		return ChatOutput{}, newError(StageValidation, "empty_prompt", nil)
	}
	url, err := s.adapters.Images.GenerateImage(ctx, prompt)
	if err != nil {
		return ChatOutput{}, wrapAdapterError("image_generation_failed", err)
	}
	return ChatOutput{Response: imageConfirmation, ImageURL: url}, nil
}

func (s *ChatService) synthesizeSpeech(ctx context.Context, in ChatInput) (ChatOutput, error) {
	input := strings.TrimSpace(in.Messages[len(in.Messages)-1].Content)
	if input == "" {
		return ChatOutput{}, newError(StageValidation, "empty_speech_input", nil)
	}
	audio, err := s.adapters.Speech.Synthesize(ctx, input)
	if err != nil {
		return ChatOutput{}, wrapAdapterError("speech_synthesis_failed", err)
	}
	path, err := s.adapters.Store.SaveSpeech(ctx, audio)
	if err != nil {
		return ChatOutput{}, newError(StageParsing, ReasonSpeechStoreFailed, err)
	}
	return ChatOutput{Response: speechConfirmation, AudioURL: path}, nil
}

func (s *ChatService) completeVision(ctx context.Context, model domain.Model, in ChatInput) (ChatOutput, error) {
	v, ok := s.adapters.Vision[model.Provider]
	if !ok {
		return ChatOutput{}, newError(StageValidation, "no_vision_adapter",
			fmt.Errorf("provider %q has no vision adapter", model.Provider))
	}
	img, err := attachment.DecodeImage(in.Attachment)
	if err != nil {
		return ChatOutput{}, newError(StageParsing, "attachment_unreadable", err)
	}
	text, err := v.CompleteVision(ctx, model.ID, in.Messages, img)
	if err != nil {
		return ChatOutput{}, wrapAdapterError("vision_completion_failed", err)
	}
	return ChatOutput{Response: text}, nil
}

func (s *ChatService) completeText(ctx context.Context, model domain.Model, in ChatInput) (ChatOutput, error) {
	t, ok := s.adapters.Text[model.Provider]
	if !ok {
		return ChatOutput{}, newError(StageValidation, "no_text_adapter",
			fmt.Errorf("provider %q has no text adapter", model.Provider))
	}
	text, err := t.Complete(ctx, model.ID, in.Messages)
	if err != nil {
		return ChatOutput{}, wrapAdapterError("text_completion_failed", err)
	}
	return ChatOutput{Response: text}, nil
}

// wrapAdapterError classifies an adapter failure: a missing credential is a
// validation fault detected before any network call; everything else is an
// upstream failure with the provider's message preserved.
func wrapAdapterError(reason string, err error) *Error {
	if name, ok := credentials.IsMissing(err); ok {
		return newError(StageValidation, "missing_credential",
			fmt.Errorf("credential %s is not set", name))
	}
	return newError(StageUpstream, reason, err)
}
