package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"chat-gateway/internal/credentials"
	"chat-gateway/internal/domain"
)

const (
	// CredentialName is the environment variable holding the API key.
	CredentialName = "OPENAI_API_KEY"

	defaultBaseURL = "https://api.openai.com/v1"

	imageModel         = "dall-e-3"
	imageSize          = "1024x1024"
	speechModel        = "tts-1"
	speechVoice        = "alloy"
	transcriptionModel = "whisper-1"
)

// contentPart is a single part of multimodal message content: a text block
// or an image_url block carrying a data URI.
type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatMessage is a message in the Chat Completions wire format. Content is a
// string for plain turns or []contentPart for the multimodal final turn.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatResponse is the minimal response shape returned by the Chat Completions endpoint.
type chatResponse struct {
	Choices []struct {
		Index   int                `json:"index"`
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
}

// imageRequest is the request shape for the Images endpoint.
type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// imageResponse is the minimal response shape for the Images endpoint.
type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// speechRequest is the request shape for the audio speech endpoint.
type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

// transcriptionResponse is the minimal response shape for the audio
// transcriptions endpoint.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused OpenAI client covering the capabilities this service
// dispatches to: chat completions (plain and vision), image generation,
// speech synthesis and audio transcription. The API key is resolved from the
// credential source on every call, before any request is built, so a missing
// key never reaches the network.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      credentials.Source
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client resolving its API key through creds.
func NewClient(creds credentials.Source, opts ...Option) (*Client, error) {
	if creds == nil {
		return nil, errors.New("openai: credential source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	return c.creds.Lookup(ctx, CredentialName)
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func endpointURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + path
}

// Complete forwards the conversation history verbatim and returns the first
// generated message's text.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	return c.chat(ctx, model, plainMessages(messages))
}

// CompleteVision sends the history with the final message expanded into a
// text block plus exactly one image block. Earlier messages pass through
// unchanged.
func (c *Client) CompleteVision(ctx context.Context, model string, messages []domain.ChatMessage, image domain.ImageAttachment) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("openai: vision request requires at least one message")
	}
	wire := plainMessages(messages[:len(messages)-1])
	last := messages[len(messages)-1]
	wire = append(wire, chatMessage{
		Role: last.Role,
		Content: []contentPart{
			{Type: "text", Text: last.Content},
			{Type: "image_url", ImageURL: &imageURL{URL: image.DataURI()}},
		},
	})
	return c.chat(ctx, model, wire)
}

func plainMessages(messages []domain.ChatMessage) []chatMessage {
	wire := make([]chatMessage, 0, len(messages)+1)
	for _, m := range messages {
		wire = append(wire, chatMessage{Role: m.Role, Content: m.Content})
	}
	return wire
}

func (c *Client) chat(ctx context.Context, model string, messages []chatMessage) (string, error) {
	if model == "" {
		return "", errors.New("openai: model must not be empty")
	}

	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	url := endpointURL(c.baseURL, "/chat/completions")
	raw, err := c.postJSON(ctx, url, apiKey, body)
	if err != nil {
		return "", fmt.Errorf("openai: chat request failed: %w", err)
	}

	var payload chatResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("openai: decode chat response: %w", decErr)
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	return payload.Choices[0].Message.Content, nil
}

// GenerateImage requests exactly one image at the fixed resolution and
// returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(imageRequest{
		Model:  imageModel,
		Prompt: prompt,
		N:      1,
		Size:   imageSize,
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal image request: %w", err)
	}

	url := endpointURL(c.baseURL, "/images/generations")
	raw, err := c.postJSON(ctx, url, apiKey, body)
	if err != nil {
		return "", fmt.Errorf("openai: image request failed: %w", err)
	}

	var payload imageResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("openai: decode image response: %w", decErr)
	}
	if len(payload.Data) == 0 || payload.Data[0].URL == "" {
		return "", errors.New("openai: no image in response")
	}
	return payload.Data[0].URL, nil
}

// Synthesize converts input text to speech and returns the full audio bytes.
// The response stream is drained completely before returning, so a success
// never leaves a partially-read body behind.
func (c *Client) Synthesize(ctx context.Context, input string) ([]byte, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(speechRequest{
		Model: speechModel,
		Voice: speechVoice,
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal speech request: %w", err)
	}

	url := endpointURL(c.baseURL, "/audio/speech")
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("openai: create speech request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("openai: speech request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("openai: empty speech audio")
	}
	return audio, nil
}

// Transcribe uploads recorded audio to the transcriptions endpoint and
// returns the transcribed text.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("openai: create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("openai: write audio data: %w", err)
	}
	if err := w.WriteField("model", transcriptionModel); err != nil {
		return "", fmt.Errorf("openai: write model field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("openai: close multipart writer: %w", err)
	}

	url := endpointURL(c.baseURL, "/audio/transcriptions")
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if reqErr != nil {
		return "", fmt.Errorf("openai: create transcription request: %w", reqErr)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("openai: transcription request failed: %w", err)
	}

	var payload transcriptionResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("openai: decode transcription response: %w", decErr)
	}
	return payload.Text, nil
}

func (c *Client) postJSON(ctx context.Context, url, apiKey string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	return c.doRequest(req, url)
}

func (c *Client) doRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
