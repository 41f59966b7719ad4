package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deepfraud/deepfraud/internal/domain/analysis"
)

func TestValidateMediaType(t *testing.T) {
	mt, err := ValidateMediaType("  Image ")
	assert.NoError(t, err)
	assert.Equal(t, analysis.MediaImage, mt)

	_, err = ValidateMediaType("hologram")
	assert.Error(t, err)
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload(analysis.MediaImage, []byte{1, 2}, "image/png"))
	assert.Error(t, ValidateUpload(analysis.MediaImage, nil, "image/png"), "empty upload")
	assert.Error(t, ValidateUpload(analysis.MediaImage, []byte{1}, "audio/mp3"), "mime mismatch")
	assert.Error(t, ValidateUpload(analysis.MediaText, []byte{1}, ""), "text is not an upload")
}

func TestValidateText(t *testing.T) {
	assert.NoError(t, ValidateText("suspicious message"))
	assert.Error(t, ValidateText("   "))
}
