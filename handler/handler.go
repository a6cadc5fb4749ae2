// Package handler is the transport boundary: it decodes inbound requests
// (JSON or multipart), invokes the use cases, and maps staged errors to
// HTTP status codes. The same core serves both the Lambda and the HTTP
// entrypoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"chat-gateway/internal/attachment"
	"chat-gateway/internal/domain"
	"chat-gateway/internal/usecase"
)

// limits for inbound payloads; attachments are held in memory for the
// lifetime of one request only.
const (
	maxAttachmentBytes = 10 << 20
	maxJSONBodyBytes   = 1 << 20
)

type ChatResponder interface {
	Respond(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type SpeechTranscriber interface {
	Transcribe(ctx context.Context, upload *attachment.Upload) (string, error)
}

type TitleGenerator interface {
	GenerateTitle(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// AudioOpener reads back a stored speech file by its bare key. The handler
// serves stored audio itself so the audioUrl it returns is resolvable
// against the same deployment that produced it.
type AudioOpener interface {
	Open(key string) (io.ReadCloser, error)
}

type Handler struct {
	chat       ChatResponder
	transcribe SpeechTranscriber
	title      TitleGenerator
	audio      AudioOpener
}

func NewHandler(chat ChatResponder, transcribe SpeechTranscriber, title TitleGenerator, audio AudioOpener) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat responder must not be nil")
	}
	if transcribe == nil {
		return nil, errors.New("handler: transcriber must not be nil")
	}
	if title == nil {
		return nil, errors.New("handler: title generator must not be nil")
	}
	if audio == nil {
		return nil, errors.New("handler: audio opener must not be nil")
	}
	return &Handler{chat: chat, transcribe: transcribe, title: title, audio: audio}, nil
}

type generateRequest struct {
	Messages    []domain.ChatMessage `json:"messages"`
	Model       string               `json:"model"`
	Addon       string               `json:"addon"`
	DetachImage bool                 `json:"detachImage"`
}

type generateResponse struct {
	Response string `json:"response"`
	ImageURL string `json:"imageUrl,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type titleRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type titleResponse struct {
	Title string `json:"title"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errBadPayload = errors.New("handler: malformed request payload")

// parseGenerateRequest accepts either a bare JSON body or a multipart form
// with a "data" JSON field plus an optional "image" file part. The multipart
// form is the only way to attach an image.
func parseGenerateRequest(contentType string, body io.Reader) (usecase.ChatInput, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "application/json"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return parseMultipartGenerate(body, params["boundary"])
	}

	var req generateRequest
	dec := json.NewDecoder(io.LimitReader(body, maxJSONBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return usecase.ChatInput{}, errBadPayload
	}
	return usecase.ChatInput{
		Messages:    req.Messages,
		Model:       req.Model,
		Addon:       req.Addon,
		DetachImage: req.DetachImage,
	}, nil
}

func parseMultipartGenerate(body io.Reader, boundary string) (usecase.ChatInput, error) {
	if boundary == "" {
		return usecase.ChatInput{}, errBadPayload
	}
	form, err := multipart.NewReader(body, boundary).ReadForm(maxAttachmentBytes)
	if err != nil {
		return usecase.ChatInput{}, errBadPayload
	}
	defer func() { _ = form.RemoveAll() }()

	data := formValue(form, "data")
	if data == "" {
		return usecase.ChatInput{}, errBadPayload
	}
	var req generateRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return usecase.ChatInput{}, errBadPayload
	}
	in := usecase.ChatInput{
		Messages:    req.Messages,
		Model:       req.Model,
		Addon:       req.Addon,
		DetachImage: req.DetachImage,
	}

	upload, err := formFile(form, "image")
	if err != nil {
		return usecase.ChatInput{}, err
	}
	in.Attachment = upload
	return in, nil
}

// parseTranscribeRequest reads the "audio" file part of a multipart form.
func parseTranscribeRequest(contentType string, body io.Reader) (*attachment.Upload, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil, errBadPayload
	}
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(maxAttachmentBytes)
	if err != nil {
		return nil, errBadPayload
	}
	defer func() { _ = form.RemoveAll() }()

	upload, err := formFile(form, "audio")
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, errBadPayload
	}
	return upload, nil
}

func parseTitleRequest(body io.Reader) ([]domain.ChatMessage, error) {
	var req titleRequest
	dec := json.NewDecoder(io.LimitReader(body, maxJSONBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, errBadPayload
	}
	return req.Messages, nil
}

func formValue(form *multipart.Form, field string) string {
	values := form.Value[field]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func formFile(form *multipart.Form, field string) (*attachment.Upload, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, errBadPayload
	}
	defer func() { _ = f.Close() }()

	// read one byte past the limit so an oversized upload is rejected
	// outright rather than truncated into a corrupt file
	data, err := io.ReadAll(io.LimitReader(f, maxAttachmentBytes+1))
	if err != nil {
		return nil, errBadPayload
	}
	if len(data) > maxAttachmentBytes {
		return nil, errBadPayload
	}
	return &attachment.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// statusForError maps a staged use case error to an HTTP status code.
// Validation failures and unreadable inbound payloads are the client's
// fault; upstream failures surface as a bad gateway; anything else is
// an internal error.
func statusForError(err error) int {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		if errors.Is(err, errBadPayload) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	switch ucErr.Stage {
	case usecase.StageValidation:
		return http.StatusBadRequest
	case usecase.StageUpstream:
		return http.StatusBadGateway
	case usecase.StageParsing:
		if ucErr.Reason == usecase.ReasonSpeechStoreFailed {
			return http.StatusInternalServerError
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		resp := errorResponse{Error: ucErr.Reason}
		if ucErr.Err != nil {
			resp.Details = ucErr.Err.Error()
		}
		return resp
	}
	if errors.Is(err, errBadPayload) {
		return errorResponse{Error: "malformed_request"}
	}
	return errorResponse{Error: "internal_error"}
}
