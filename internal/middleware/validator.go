package middleware

import (
	"fmt"
	"strings"

	"github.com/deepfraud/deepfraud/internal/domain/analysis"
)

// Input validation for analysis submissions

// MaxUploadBytes caps submitted media size; inline base64 transport to the
// model roughly doubles the payload, so keep uploads modest.
const MaxUploadBytes = 20 << 20

// MaxTextLength caps pasted text submissions.
const MaxTextLength = 100_000

// ValidateMediaType checks the submitted media type against the supported set.
func ValidateMediaType(mt string) (analysis.MediaType, error) {
	m := analysis.MediaType(strings.ToLower(strings.TrimSpace(mt)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid media type: %s (allowed: image, audio, video, text)", mt)
	}
	return m, nil
}

// ValidateUpload checks binary submissions before they reach the gateway.
func ValidateUpload(mediaType analysis.MediaType, data []byte, mime string) error {
	if mediaType == analysis.MediaText {
		return fmt.Errorf("text submissions take the text field, not a file upload")
	}
	if len(data) == 0 {
		return fmt.Errorf("empty file upload")
	}
	if len(data) > MaxUploadBytes {
		return fmt.Errorf("file exceeds %d byte limit", MaxUploadBytes)
	}
	if mime != "" {
		prefix := string(mediaType) + "/"
		if !strings.HasPrefix(mime, prefix) {
			return fmt.Errorf("mime type %s does not match media type %s", mime, mediaType)
		}
	}
	return nil
}

// ValidateText checks pasted text submissions.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text content cannot be empty")
	}
	if len(text) > MaxTextLength {
		return fmt.Errorf("text exceeds %d character limit", MaxTextLength)
	}
	return nil
}
