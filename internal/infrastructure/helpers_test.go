package infrastructure

import (
	"testing"

	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/stretchr/testify/assert"
)

func TestGetExtensionFromMIME(t *testing.T) {
	for mime, want := range map[string]string{
		"image/jpeg": "jpg",
		"image/jpg":  "jpg",
		"image/png":  "png",
		"image/webp": "webp",
	} {
		got, err := GetExtensionFromMIME(mime)
		assert.NoError(t, err, mime)
		assert.Equal(t, want, got, mime)
	}

	_, err := GetExtensionFromMIME("application/pdf")
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
	assert.ErrorIs(t, err, e.ErrInvalidRequest)
}
