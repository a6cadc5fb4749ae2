package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NewRouter builds the standalone HTTP server's engine. It serves the same
// endpoints as the Lambda, including the generated audio files.
func NewRouter(h *Handler) (*gin.Engine, error) {
	if h == nil {
		return nil, errors.New("handler: handler must not be nil")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), correlationMiddleware())

	api := router.Group("/api")
	api.POST("/generateResponse", h.handleGenerate)
	api.POST("/speechToText", h.handleTranscribe)
	api.POST("/generateTitle", h.handleTitle)
	api.GET("/audio/speech/:key", h.handleAudio)

	return router, nil
}

func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(correlationHeader, id)
		c.Next()
		slog.Info("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"correlation_id", id)
	}
}

func (h *Handler) handleGenerate(c *gin.Context) {
	in, err := parseGenerateRequest(c.GetHeader("Content-Type"), c.Request.Body)
	if err != nil {
		c.JSON(statusForError(err), errorBody(err))
		return
	}
	out, err := h.chat.Respond(c.Request.Context(), in)
	if err != nil {
		c.JSON(statusForError(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, generateResponse{
		Response: out.Response,
		ImageURL: out.ImageURL,
		AudioURL: out.AudioURL,
	})
}

func (h *Handler) handleTranscribe(c *gin.Context) {
	upload, err := parseTranscribeRequest(c.GetHeader("Content-Type"), c.Request.Body)
	if err != nil {
		c.JSON(statusForError(err), errorBody(err))
		return
	}
	text, err := h.transcribe.Transcribe(c.Request.Context(), upload)
	if err != nil {
		c.JSON(statusForError(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, transcriptionResponse{Text: text})
}

func (h *Handler) handleTitle(c *gin.Context) {
	messages, err := parseTitleRequest(c.Request.Body)
	if err != nil {
		c.JSON(statusForError(err), errorBody(err))
		return
	}
	title, err := h.title.GenerateTitle(c.Request.Context(), messages)
	if err != nil {
		c.JSON(statusForError(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, titleResponse{Title: title})
}

func (h *Handler) handleAudio(c *gin.Context) {
	f, err := h.audio.Open(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "audio_not_found"})
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", data)
}
