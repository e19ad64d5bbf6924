package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"os"
	"path/filepath"
	"strings"

	"bitsconnect/internal/config"
	"bitsconnect/internal/models"
	"bitsconnect/internal/observability"

	"github.com/chai2010/webp"
	"go.opentelemetry.io/otel/attribute"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir          = "/tmp/bitsconnect/media"
	DefaultMediaBaseURL      = "/media"
	DefaultMaxUploadSizeMB   = 10
	DefaultMaxImageDimension = 2048
	WebPQuality              = 75
)

// DiskStorage keeps media in a content-addressed directory. Images are
// downscaled and re-encoded as WebP; videos are stored as uploaded.
type DiskStorage struct {
	dir          string
	baseURL      string
	maxBytes     int64
	maxDimension int
	logger       *observability.ComponentLogger
}

// NewDiskStorage builds a DiskStorage from config, falling back to defaults
// for unset values.
func NewDiskStorage(cfg *config.Config) *DiskStorage {
	s := &DiskStorage{
		dir:          DefaultMediaDir,
		baseURL:      DefaultMediaBaseURL,
		maxBytes:     int64(DefaultMaxUploadSizeMB) * 1024 * 1024,
		maxDimension: DefaultMaxImageDimension,
		logger:       observability.NewComponentLogger("media"),
	}
	if cfg != nil {
		if cfg.MediaDir != "" {
			s.dir = cfg.MediaDir
		}
		if cfg.MediaBaseURL != "" {
			s.baseURL = strings.TrimRight(cfg.MediaBaseURL, "/")
		}
		if cfg.MediaMaxUploadMB > 0 {
			s.maxBytes = cfg.MediaMaxUploadBytes()
		}
		if cfg.MaxImageDimension > 0 {
			s.maxDimension = cfg.MaxImageDimension
		}
	}
	return s
}

// Dir is the directory files are written to.
func (s *DiskStorage) Dir() string { return s.dir }

// BaseURL is the URL prefix files are served under.
func (s *DiskStorage) BaseURL() string { return s.baseURL }

// Upload validates, transcodes and writes u, returning its public URI.
func (s *DiskStorage) Upload(ctx context.Context, u Upload) (string, error) {
	ctx, span := observability.StartSpan(ctx, "media.upload",
		attribute.String("media.name", u.Name),
		attribute.Int("media.bytes", len(u.Content)),
	)

	kind, err := u.MediaType()
	if err != nil {
		span.Finish(err)
		observability.MediaUploads.WithLabelValues("unknown", observability.ResultRejected).Inc()
		return "", err
	}

	uri, err := s.store(u, kind)
	if err != nil {
		span.Finish(err)
		observability.MediaUploads.WithLabelValues(string(kind), observability.ResultLabel(err, models.IsValidation(err))).Inc()
		if models.IsStorage(err) {
			s.logger.LogError(ctx, err, "upload", map[string]interface{}{"name": u.Name})
		}
		return "", err
	}
	observability.MediaUploads.WithLabelValues(string(kind), observability.ResultOK).Inc()
	span.Annotate(attribute.String("media.uri", uri))
	span.Finish(nil)
	return uri, nil
}

func (s *DiskStorage) store(u Upload, kind models.MediaType) (string, error) {
	if len(u.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(u.Content)) > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}

	data, ext := u.Content, extensionFor(u)
	if kind == models.MediaImage {
		img, _, err := image.Decode(bytes.NewReader(u.Content))
		if err != nil {
			return "", models.NewValidationError("Invalid image file")
		}
		data, err = encodeWebP(resizeToFit(img, s.maxDimension), WebPQuality)
		if err != nil {
			return "", models.NewStorageError("Failed to encode image", err)
		}
		ext = ".webp"
	}

	name := contentHash(data) + ext
	if err := writeBytesToFile(filepath.Join(s.dir, name), data); err != nil {
		return "", models.NewStorageError("Failed to store media", err)
	}
	return s.baseURL + "/" + name, nil
}

func extensionFor(u Upload) string {
	if ext := strings.ToLower(filepath.Ext(u.Name)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(normalizeContentType(u.ContentType)); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func resizeToFit(src image.Image, maxSize int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxSize && h <= maxSize) {
		return src
	}

	scale := float64(maxSize) / float64(w)
	if hs := float64(maxSize) / float64(h); hs < scale {
		scale = hs
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
