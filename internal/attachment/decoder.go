// Package attachment turns uploaded binaries into the encodings the provider
// integrations need: a data-URI image for vision requests and a byte stream
// for audio uploads.
package attachment

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"chat-gateway/internal/domain"
)

// Upload is a raw file received at the transport boundary, held in memory
// for the duration of one request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var (
	ErrEmptyUpload = errors.New("attachment: upload is empty")
	ErrNotImage    = errors.New("attachment: upload is not an image")
)

// DecodeImage validates an uploaded image and returns it ready for a vision
// request. The declared content type wins when present; otherwise the type
// is sniffed from the leading bytes.
func DecodeImage(u *Upload) (domain.ImageAttachment, error) {
	if u == nil || len(u.Data) == 0 {
		return domain.ImageAttachment{}, ErrEmptyUpload
	}
	mime := strings.TrimSpace(u.ContentType)
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(u.Data)
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if !strings.HasPrefix(mime, "image/") {
		return domain.ImageAttachment{}, ErrNotImage
	}
	return domain.ImageAttachment{MIME: mime, Data: u.Data}, nil
}

// AudioStream exposes an uploaded audio file as a reader for direct upload,
// along with the filename the transcription endpoint expects.
func AudioStream(u *Upload) (io.Reader, string, error) {
	if u == nil || len(u.Data) == 0 {
		return nil, "", ErrEmptyUpload
	}
	name := strings.TrimSpace(u.Filename)
	if name == "" {
		name = "audio.webm"
	}
	return bytes.NewReader(u.Data), name, nil
}
