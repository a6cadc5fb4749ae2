package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-gateway/internal/credentials"
	"chat-gateway/internal/domain"
)

func testCreds() credentials.Static {
	return credentials.Static{CredentialName: "sk-test"}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(testCreds(), WithBaseURL(url))
	require.NoError(t, err)
	return c
}

func TestEndpointURL(t *testing.T) {
	cases := []struct {
		base string
		path string
		want string
	}{
		{"https://api.openai.com/v1", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "/chat/completions", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "/images/generations", "http://localhost:8080/v1/images/generations"},
		{"", "/audio/speech", "https://api.openai.com/v1/audio/speech"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, endpointURL(tc.base, tc.path), "base=%q", tc.base)
	}
}

func TestNewClient_NilCredentials(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestComplete_ForwardsHistoryVerbatim(t *testing.T) {
	var captured chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.Complete(context.Background(), "gpt-4o-mini", []domain.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "hi there", out)
	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 2)
	require.Equal(t, "system", captured.Messages[0].Role)
	require.Equal(t, "be brief", captured.Messages[0].Content)
	require.Equal(t, "hello", captured.Messages[1].Content)
}

func TestComplete_MissingCredential_NoCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	c, err := NewClient(credentials.Static{}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "gpt-4o-mini", []domain.ChatMessage{{Role: "user", Content: "hi"}})
	name, ok := credentials.IsMissing(err)
	require.True(t, ok)
	require.Equal(t, CredentialName, name)
	require.Zero(t, calls)
}

func TestComplete_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "gpt-4o-mini", []domain.ChatMessage{{Role: "user", Content: "hi"}})
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "rate limited")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "gpt-4o-mini", []domain.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestCompleteVision_AppendsImageBlockToFinalMessage(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"a cat on a mat"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	img := domain.ImageAttachment{MIME: "image/png", Data: []byte{1, 2, 3}}
	out, err := c.CompleteVision(context.Background(), "gpt-4-vision-preview", []domain.ChatMessage{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "what is in this image?"},
	}, img)
	require.NoError(t, err)
	require.Equal(t, "a cat on a mat", out)

	msgs := raw["messages"].([]any)
	require.Len(t, msgs, 3)

	// earlier turns stay plain strings
	first := msgs[0].(map[string]any)
	require.Equal(t, "first question", first["content"])

	last := msgs[2].(map[string]any)
	parts := last["content"].([]any)
	require.Len(t, parts, 2)

	text := parts[0].(map[string]any)
	require.Equal(t, "text", text["type"])
	require.Equal(t, "what is in this image?", text["text"])

	image := parts[1].(map[string]any)
	require.Equal(t, "image_url", image["type"])
	url := image["image_url"].(map[string]any)["url"].(string)
	require.Equal(t, img.DataURI(), url)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestCompleteVision_RequiresMessages(t *testing.T) {
	c := newTestClient(t, "http://localhost:0")
	_, err := c.CompleteVision(context.Background(), "gpt-4-vision-preview", nil, domain.ImageAttachment{})
	require.Error(t, err)
}

func TestGenerateImage(t *testing.T) {
	var captured imageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/images/generations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example/cat.png"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	url, err := c.GenerateImage(context.Background(), "a cat")
	require.NoError(t, err)
	require.Equal(t, "https://img.example/cat.png", url)
	require.Equal(t, imageRequest{Model: "dall-e-3", Prompt: "a cat", N: 1, Size: "1024x1024"}, captured)
}

func TestGenerateImage_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GenerateImage(context.Background(), "a cat")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no image")
}

func TestSynthesize_DrainsFullAudioStream(t *testing.T) {
	var captured speechRequest
	audio := strings.Repeat("mp3-frame/", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/speech", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = io.WriteString(w, audio)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.Synthesize(context.Background(), "read this aloud")
	require.NoError(t, err)
	require.Equal(t, audio, string(out))
	require.Equal(t, speechRequest{Model: "tts-1", Voice: "alloy", Input: "read this aloud"}, captured)
}

func TestSynthesize_EmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Synthesize(context.Background(), "read this aloud")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty speech audio")
}

func TestSynthesize_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Synthesize(context.Background(), "read this aloud")
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "whisper-1", r.FormValue("model"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		require.Equal(t, "voice.mp3", header.Filename)

		b, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "recorded-audio", string(b))

		_, _ = w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	text, err := c.Transcribe(context.Background(), strings.NewReader("recorded-audio"), "voice.mp3")
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestTranscribe_MissingCredential_NoCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer srv.Close()

	c, err := NewClient(credentials.Static{}, WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), strings.NewReader("x"), "voice.mp3")
	_, ok := credentials.IsMissing(err)
	require.True(t, ok)
	require.Zero(t, calls)
}
