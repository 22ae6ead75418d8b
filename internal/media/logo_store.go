package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/volleyscore/scoreboard/internal/domain"
)

// DefaultMaxBytes is the default upload ceiling (2 MiB).
const DefaultMaxBytes int64 = 2 << 20

// URLPrefix is the path under which stored images are served.
const URLPrefix = "/uploads/"

// LogoStore keeps uploaded team and sponsor images on the local filesystem.
type LogoStore struct {
	dir      string
	maxBytes int64
}

// NewLogoStore creates the upload directory if needed.
func NewLogoStore(dir string, maxBytes int64) (*LogoStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LogoStore{dir: dir, maxBytes: maxBytes}, nil
}

// MaxBytes returns the upload ceiling.
func (s *LogoStore) MaxBytes() int64 {
	return s.maxBytes
}

// Stored describes a saved image.
type Stored struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Save reads an image from r and stores it under a generated name.
// The content type is sniffed from the bytes; anything that is not an image,
// or is larger than MaxBytes, is a ValidationError.
func (s *LogoStore) Save(r io.Reader) (*Stored, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrValidation(fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}
	if len(data) == 0 {
		return nil, domain.ErrValidation("image is empty")
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, domain.ErrValidation(fmt.Sprintf("file type %s is not an image", mt.String()))
	}

	name := uuid.NewString() + mt.Extension()
	target := filepath.Join(s.dir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &Stored{
		Name:     name,
		Path:     URLPrefix + name,
		MimeType: mt.String(),
		Size:     int64(len(data)),
	}, nil
}

// Open returns a stored image by name.
func (s *LogoStore) Open(name string) (*os.File, os.FileInfo, error) {
	if !validName(name) {
		return nil, nil, domain.ErrNotFound("upload", name)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, domain.ErrNotFound("upload", name)
		}
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat upload: %w", err)
	}
	return f, info, nil
}

// Remove deletes a stored image. Removing a missing image is not an error.
func (s *LogoStore) Remove(name string) error {
	if !validName(name) {
		return domain.ErrNotFound("upload", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func validName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".") && !strings.HasSuffix(name, ".tmp")
}
