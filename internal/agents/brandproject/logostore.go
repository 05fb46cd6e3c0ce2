package brandproject

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/umt-agenthub/core/internal/errkind"
)

// DefaultAllowedLogoExtensions is the default set of accepted logo
// file extensions.
var DefaultAllowedLogoExtensions = []string{"jpg", "jpeg", "png", "gif", "svg", "webp"}

// DefaultMaxLogoSize is the default max upload size.
const DefaultMaxLogoSize = 10 << 20 // 10 MiB

// FileLogoStore persists logos under root/{brand_id}/{filename} and
// returns them as "/uploads/logos/{brand_id}/{filename}" URLs.
type FileLogoStore struct {
	root     string
	urlRoot  string
	allowed  map[string]bool
	maxBytes int
}

func NewFileLogoStore(root string, allowedExtensions []string, maxBytes int) *FileLogoStore {
	if len(allowedExtensions) == 0 {
		allowedExtensions = DefaultAllowedLogoExtensions
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxLogoSize
	}
	allowed := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &FileLogoStore{root: root, urlRoot: "/uploads/logos", allowed: allowed, maxBytes: maxBytes}
}

func (s *FileLogoStore) ValidateExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !s.allowed[ext] {
		return errkind.Newf(errkind.Validation, "file type not allowed: %q", ext)
	}
	return nil
}

func (s *FileLogoStore) MaxBytes() int { return s.maxBytes }

// Save writes data to disk and returns the public URL path. The
// caller is responsible for updating the Brand record before calling
// Delete on the previous logo's URL, so a logo swap atomically
// replaces the previous logo only after a successful write.
func (s *FileLogoStore) Save(_ context.Context, brandID, filename string, data []byte) (string, error) {
	if err := s.ValidateExtension(filename); err != nil {
		return "", err
	}
	if len(data) > s.maxBytes {
		return "", errkind.Newf(errkind.Validation, "logo exceeds max size of %d bytes", s.maxBytes)
	}
	dir := filepath.Join(s.root, brandID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errkind.Wrap(errkind.Internal, err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errkind.Wrap(errkind.Internal, err)
	}
	return s.urlRoot + "/" + brandID + "/" + filename, nil
}

// Delete removes the file backing a previously-returned URL. Best
// effort: a missing file is not an error, since cleanup of the old
// logo happens only after the new one is already recorded.
func (s *FileLogoStore) Delete(_ context.Context, url string) error {
	rel := strings.TrimPrefix(url, s.urlRoot+"/")
	if rel == url || rel == "" {
		return nil
	}
	path := filepath.Join(s.root, rel)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errkind.Wrap(errkind.Internal, err)
	}
	return nil
}
