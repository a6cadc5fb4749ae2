package domain

import "encoding/base64"

// ImageAttachment is a decoded image upload ready for a vision request.
// Providers consume it in different encodings: OpenAI-compatible APIs take a
// data URI, Anthropic takes raw base64 plus the media type.
type ImageAttachment struct {
	MIME string
	Data []byte
}

// Base64 returns the image bytes encoded as standard base64.
func (a ImageAttachment) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// DataURI returns the image as a data URI suitable for an image_url block.
func (a ImageAttachment) DataURI() string {
	return "data:" + a.MIME + ";base64," + a.Base64()
}
