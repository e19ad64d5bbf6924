// Package media stores uploaded post, avatar and banner media and hands back
// the URI the store records in place of the bytes.
package media

import (
	"context"
	"mime"
	"strings"

	"bitsconnect/internal/models"
)

// Upload is one file picked by the user.
type Upload struct {
	Name        string
	ContentType string
	Content     []byte
}

// MediaType derives image or video from the content type.
func (u Upload) MediaType() (models.MediaType, error) {
	ct := normalizeContentType(u.ContentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.MediaImage, nil
	case strings.HasPrefix(ct, "video/"):
		return models.MediaVideo, nil
	default:
		return "", models.NewValidationError("Unsupported media type " + u.ContentType)
	}
}

// Storage uploads media and returns its URI.
type Storage interface {
	Upload(ctx context.Context, u Upload) (string, error)
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
