package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

// Store persists uploaded video files. Filenames are opaque keys produced by
// UploadFilename; callers never pass user input straight through.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) error
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	Delete(ctx context.Context, filename string) error
}

const (
	ModeLocal = "local"
	ModeGCS   = "gcs"
)

type Config struct {
	Mode      string
	LocalDir  string
	GCSBucket string
}

func New(log *logger.Logger, cfg Config) (Store, error) {
	mode := strings.TrimSpace(strings.ToLower(cfg.Mode))
	if mode == "" {
		mode = ModeLocal
	}
	switch mode {
	case ModeLocal:
		return newLocalStore(log, cfg.LocalDir)
	case ModeGCS:
		return newGCSStore(log, cfg.GCSBucket)
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", mode)
	}
}

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// AllowedExtension reports whether the upload's extension is a supported
// video container.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// UploadFilename sanitizes an uploaded filename and prefixes it with a
// timestamp so repeated uploads of the same file never collide.
func UploadFilename(original string, now time.Time) string {
	base := filepath.Base(original)
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), base)
}
