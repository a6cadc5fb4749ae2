package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

const (
	correlationHeader = "X-Correlation-Id"
	audioPathPrefix   = "/api/audio/speech/"
)

// Handle is the Lambda entrypoint behind API Gateway. It routes by path,
// decodes base64 bodies when the gateway marks them encoded, and always
// answers with a JSON body and a correlation id header.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)
	resp, err := h.route(ctx, event, corrID)
	slog.Info("request handled",
		"method", event.HTTPMethod,
		"path", event.Path,
		"status", resp.StatusCode,
		"correlation_id", corrID)
	return resp, err
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest, corrID string) (events.APIGatewayProxyResponse, error) {
	if event.HTTPMethod == http.MethodGet {
		if key, ok := strings.CutPrefix(event.Path, audioPathPrefix); ok {
			return h.serveStoredAudio(key, corrID), nil
		}
		return respond(http.StatusNotFound, errorResponse{Error: "not_found"}, corrID), nil
	}
	if event.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed"}, corrID), nil
	}

	body, err := eventBody(event)
	if err != nil {
		return respond(http.StatusBadRequest, errorBody(err), corrID), nil
	}
	contentType := headerValue(event.Headers, "Content-Type")

	switch event.Path {
	case "/api/generateResponse":
		in, err := parseGenerateRequest(contentType, body)
		if err != nil {
			return respond(statusForError(err), errorBody(err), corrID), nil
		}
		out, err := h.chat.Respond(ctx, in)
		if err != nil {
			return respond(statusForError(err), errorBody(err), corrID), nil
		}
		return respond(http.StatusOK, generateResponse{
			Response: out.Response,
			ImageURL: out.ImageURL,
			AudioURL: out.AudioURL,
		}, corrID), nil

	case "/api/speechToText":
		upload, err := parseTranscribeRequest(contentType, body)
		if err != nil {
			return respond(statusForError(err), errorBody(err), corrID), nil
		}
		text, err := h.transcribe.Transcribe(ctx, upload)
		if err != nil {
			return respond(statusForError(err), errorBody(err), corrID), nil
		}
		return respond(http.StatusOK, transcriptionResponse{Text: text}, corrID), nil

	case "/api/generateTitle":
		messages, err := parseTitleRequest(body)
		if err != nil {
			return respond(statusForError(err), errorBody(err), corrID), nil
		}
		title, err := h.title.GenerateTitle(ctx, messages)
		if err != nil {
			return respond(statusForError(err), errorBody(err), corrID), nil
		}
		return respond(http.StatusOK, titleResponse{Title: title}, corrID), nil
	}

	return respond(http.StatusNotFound, errorResponse{Error: "not_found"}, corrID), nil
}

// serveStoredAudio returns a stored synthesis result as a base64-encoded
// binary response, which API Gateway decodes back to bytes on the way out.
func (h *Handler) serveStoredAudio(key, corrID string) events.APIGatewayProxyResponse {
	f, err := h.audio.Open(key)
	if err != nil {
		return respond(http.StatusNotFound, errorResponse{Error: "audio_not_found"}, corrID)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return respond(http.StatusInternalServerError, errorResponse{Error: "internal_error"}, corrID)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":    "audio/mpeg",
			correlationHeader: corrID,
		},
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
	}
}

func eventBody(event events.APIGatewayProxyRequest) (io.Reader, error) {
	if !event.IsBase64Encoded {
		return strings.NewReader(event.Body), nil
	}
	raw, err := base64.StdEncoding.DecodeString(event.Body)
	if err != nil {
		return nil, errBadPayload
	}
	return bytes.NewReader(raw), nil
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func correlationID(headers map[string]string) string {
	if id := headerValue(headers, correlationHeader); id != "" {
		return id
	}
	return uuid.NewString()
}

func respond(status int, body any, corrID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"internal_error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(raw),
	}
}
