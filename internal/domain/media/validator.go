package media

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const bytesPerMB = 1024 * 1024

var defaultImageExts = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
var defaultVideoExts = []string{".mp4", ".mov", ".webm", ".avi"}

// CheckedFile is the validator's verdict on an incoming buffer.
type CheckedFile struct {
	Kind        Kind
	Ext         string // lowercased, with leading dot
	SizeMB      float64
	ContentType string
}

// Validator classifies files by extension and enforces per-kind size
// ceilings. It is pure: no side effects, same verdict for same inputs.
type Validator struct {
	imageExts  map[string]bool
	videoExts  map[string]bool
	imageMaxMB float64
	videoMaxMB float64
}

func NewValidator(cfg Config) *Validator {
	v := &Validator{
		imageExts:  make(map[string]bool),
		videoExts:  make(map[string]bool),
		imageMaxMB: cfg.ImageMaxMB,
		videoMaxMB: cfg.VideoMaxMB,
	}
	for _, e := range defaultImageExts {
		v.imageExts[e] = true
	}
	for _, e := range defaultVideoExts {
		v.videoExts[e] = true
	}
	return v
}

// Check classifies the buffer and verifies its size. declaredType is used
// only as a content-type hint for storage; classification is by extension.
func (v *Validator) Check(data []byte, filename string, declaredType string) (*CheckedFile, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	sizeMB := float64(len(data)) / bytesPerMB

	var kind Kind
	var limit float64
	switch {
	case v.imageExts[ext]:
		kind, limit = KindImage, v.imageMaxMB
	case v.videoExts[ext]:
		kind, limit = KindVideo, v.videoMaxMB
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, ext)
	}

	if sizeMB > limit {
		return nil, &SizeLimitError{Kind: kind, SizeMB: sizeMB, LimitMB: limit}
	}

	contentType := strings.TrimSpace(declaredType)
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &CheckedFile{Kind: kind, Ext: ext, SizeMB: sizeMB, ContentType: contentType}, nil
}
