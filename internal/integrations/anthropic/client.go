// Package anthropic is a focused client for the Anthropic Messages API
// covering plain chat and vision requests.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chat-gateway/internal/credentials"
	"chat-gateway/internal/domain"
)

const (
	// CredentialName is the environment variable holding the API key.
	CredentialName = "ANTHROPIC_API_KEY"

	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	maxTokens      = 1024
)

// contentBlock is one block of message content: text or a base64 image.
type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

// imageSource holds base64 image data for vision.
type imageSource struct {
	Type      string `json:"type"`       // "base64"
	MediaType string `json:"media_type"` // "image/jpeg", "image/png"
	Data      string `json:"data"`
}

// message is a single turn in the Messages API wire format. Content is a
// string for plain turns or []contentBlock for the multimodal final turn.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// messagesRequest is the minimal request shape for the Messages endpoint.
// System prompts ride in a dedicated field rather than the message list.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

// messagesResponse is the minimal response shape for the Messages endpoint.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("anthropic: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Anthropic Messages API. The API key is resolved from the
// credential source on every call, before any request is built.
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
		return nil, errors.New("anthropic: credential source must not be nil")
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

func messagesURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/v1/messages"
}

// Complete forwards the conversation and returns the generated text. System
// messages are folded into the dedicated system field, preserving their
// order; the remaining turns pass through unchanged.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	system, turns := splitSystem(messages)
	wire := make([]message, 0, len(turns))
	for _, m := range turns {
		wire = append(wire, message{Role: m.Role, Content: m.Content})
	}
	return c.send(ctx, model, system, wire)
}

// CompleteVision sends the history with the final message expanded into a
// text block plus exactly one base64 image block.
func (c *Client) CompleteVision(ctx context.Context, model string, messages []domain.ChatMessage, image domain.ImageAttachment) (string, error) {
	system, turns := splitSystem(messages)
	if len(turns) == 0 {
		return "", errors.New("anthropic: vision request requires at least one non-system message")
	}
	wire := make([]message, 0, len(turns))
	for _, m := range turns[:len(turns)-1] {
		wire = append(wire, message{Role: m.Role, Content: m.Content})
	}
	last := turns[len(turns)-1]
	wire = append(wire, message{
		Role: last.Role,
		Content: []contentBlock{
			{Type: "text", Text: last.Content},
			{Type: "image", Source: &imageSource{
				Type:      "base64",
				MediaType: image.MIME,
				Data:      image.Base64(),
			}},
		},
	})
	return c.send(ctx, model, system, wire)
}

func splitSystem(messages []domain.ChatMessage) (string, []domain.ChatMessage) {
	var system []string
	turns := make([]domain.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

func (c *Client) send(ctx context.Context, model, system string, wire []message) (string, error) {
	if model == "" {
		return "", errors.New("anthropic: model must not be empty")
	}

	apiKey, err := c.creds.Lookup(ctx, CredentialName)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  wire,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	url := messagesURL(c.baseURL)
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return "", fmt.Errorf("anthropic: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	res, doErr := httpClient.Do(req)
	if doErr != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &HTTPStatusError{StatusCode: res.StatusCode, URL: url, Body: string(buf)}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("anthropic: read response body: %w", err)
	}

	var payload messagesResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", decErr)
	}
	for _, block := range payload.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropic: no text content in response")
}
