package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-gateway/handler"
	"chat-gateway/internal/config"
	"chat-gateway/internal/credentials"
	"chat-gateway/internal/domain"
	"chat-gateway/internal/integrations/anthropic"
	"chat-gateway/internal/integrations/filestore"
	"chat-gateway/internal/integrations/groq"
	"chat-gateway/internal/integrations/openai"
	"chat-gateway/internal/integrations/paramstore"
	"chat-gateway/internal/usecase"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Credential source (API keys live in Parameter Store) ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	creds, err := paramstore.NewSource(ssmClient, cfg.ParamPrefix)
	if err != nil {
		slog.Error("failed to create credential source", "err", err)
		os.Exit(1)
	}

	h, err := buildHandler(cfg, creds)
	if err != nil {
		slog.Error("failed to assemble handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func buildHandler(cfg config.Config, creds credentials.Source) (*handler.Handler, error) {
	openaiOpts := []openai.Option{}
	if cfg.OpenAIBaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	openaiClient, err := openai.NewClient(creds, openaiOpts...)
	if err != nil {
		return nil, err
	}

	anthropicOpts := []anthropic.Option{}
	if cfg.AnthropicBaseURL != "" {
		anthropicOpts = append(anthropicOpts, anthropic.WithBaseURL(cfg.AnthropicBaseURL))
	}
	anthropicClient, err := anthropic.NewClient(creds, anthropicOpts...)
	if err != nil {
		return nil, err
	}

	groqOpts := []groq.Option{}
	if cfg.GroqBaseURL != "" {
		groqOpts = append(groqOpts, groq.WithBaseURL(cfg.GroqBaseURL))
	}
	groqClient, err := groq.NewClient(creds, groqOpts...)
	if err != nil {
		return nil, err
	}
	store, err := filestore.NewLocal(lambdaAudioDir(cfg.AudioDir), cfg.AudioPublicPrefix)
	if err != nil {
		return nil, err
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
		return nil, err
	}
	transcribeService, err := usecase.NewTranscribeService(openaiClient)
	if err != nil {
		return nil, err
	}
	titleService, err := usecase.NewTitleService(openaiClient)
	if err != nil {
		return nil, err
	}

	return handler.NewHandler(chatService, transcribeService, titleService, store)
}

// lambdaAudioDir roots a relative audio directory under /tmp, the only
// writable path in the Lambda filesystem.
func lambdaAudioDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join("/tmp", dir)
}
