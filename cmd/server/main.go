package main

import (
	"log/slog"
	"os"

	"chat-gateway/handler"
	"chat-gateway/internal/config"
	"chat-gateway/internal/credentials"
	"chat-gateway/internal/domain"
	"chat-gateway/internal/integrations/anthropic"
	"chat-gateway/internal/integrations/filestore"
	"chat-gateway/internal/integrations/groq"
	"chat-gateway/internal/integrations/openai"
	"chat-gateway/internal/usecase"
)

// The standalone server reads API keys straight from the environment and
// serves generated audio itself, which is all a local or single-host
// deployment needs. The Lambda build is the Parameter Store variant.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	creds := credentials.Env{}

	openaiOpts := []openai.Option{}
	if cfg.OpenAIBaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	openaiClient, err := openai.NewClient(creds, openaiOpts...)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	anthropicOpts := []anthropic.Option{}
	if cfg.AnthropicBaseURL != "" {
		anthropicOpts = append(anthropicOpts, anthropic.WithBaseURL(cfg.AnthropicBaseURL))
	}
	anthropicClient, err := anthropic.NewClient(creds, anthropicOpts...)
	if err != nil {
		slog.Error("failed to create Anthropic client", "err", err)
		os.Exit(1)
	}

	groqOpts := []groq.Option{}
	if cfg.GroqBaseURL != "" {
		groqOpts = append(groqOpts, groq.WithBaseURL(cfg.GroqBaseURL))
	}
	groqClient, err := groq.NewClient(creds, groqOpts...)
	if err != nil {
		slog.Error("failed to create Groq client", "err", err)
		os.Exit(1)
	}

	store, err := filestore.NewLocal(cfg.AudioDir, cfg.AudioPublicPrefix)
	if err != nil {
		slog.Error("failed to create audio store", "err", err)
		os.Exit(1)
	}

	chatService, err := usecase.NewChatService(usecase.Adapters{
		Text: map[domain.Provider]usecase.TextCompleter{
			domain.ProviderOpenAI:    openaiClient,
			domain.ProviderAnthropic: anthropicClient,
			domain.ProviderGroq:      groqClient,
		},
		Vision: map[domain.Provider]usecase.VisionCompleter{
			domain.ProviderOpenAI:    openaiClient,
			domain.ProviderAnthropic: anthropicClient,
		},
		Images: openaiClient,
		Speech: openaiClient,
		Store:  store,
	})
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}
	transcribeService, err := usecase.NewTranscribeService(openaiClient)
	if err != nil {
		slog.Error("failed to create transcription service", "err", err)
		os.Exit(1)
	}
	titleService, err := usecase.NewTitleService(openaiClient)
	if err != nil {
		slog.Error("failed to create title service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService, transcribeService, titleService, store)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}
	router, err := handler.NewRouter(h)
	if err != nil {
		slog.Error("failed to create router", "err", err)
		os.Exit(1)
	}

	slog.Info("listening", "addr", cfg.ListenAddr)
	if err := router.Run(cfg.ListenAddr); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
