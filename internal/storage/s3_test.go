package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetContentType(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".jpg", "image/jpeg"},
		{".JPG", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".png", "image/png"},
		{".PNG", "image/png"},
		{".gif", "image/gif"},
		{".webp", "image/webp"},
		{".svg", "image/svg+xml"},
		{".unknown", "application/octet-stream"},
		{"", "application/octet-stream"},
		{".bmp", "application/octet-stream"}, // Not supported
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			result := getContentType(tt.extension)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestMediaKeyLayout(t *testing.T) {
	key := mediaKey("media", "user-123", "photo.PNG")

	parts := strings.Split(key, "/")
	assert.Len(t, parts, 5)
	assert.Equal(t, "media", parts[0])
	assert.Equal(t, "user-123", parts[3])
	assert.True(t, strings.HasSuffix(key, ".png"), "extension should be lowercased")
}

func TestMediaKeyDefaultsExtension(t *testing.T) {
	key := mediaKey("avatars", "user-123", "no-extension")
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}

func TestMediaKeyUnique(t *testing.T) {
	a := mediaKey("media", "user-123", "photo.jpg")
	b := mediaKey("media", "user-123", "photo.jpg")
	assert.NotEqual(t, a, b)
}
