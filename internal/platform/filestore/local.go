package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidLocator = errors.New("invalid storage locator")

// Local keeps uploaded files under a root directory. Locators are relative
// paths of the form "<subject_id>/<uuid>-<filename>".
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root failed: %w", err)
	}
	return &Local{root: root}, nil
}

func (s *Local) Save(_ context.Context, subjectID, filename string, data []byte) (string, error) {
	name := uuid.NewString() + "-" + sanitizeFilename(filename)
	locator := filepath.ToSlash(filepath.Join(subjectID, name))
	full, err := s.resolve(locator)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create subject dir failed: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload failed: %w", err)
	}
	return locator, nil
}

func (s *Local) Read(_ context.Context, locator string) ([]byte, error) {
	full, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	return b, nil
}

// DeleteSubject removes every file stored for the subject.
func (s *Local) DeleteSubject(_ context.Context, subjectID string) error {
	full, err := s.resolve(subjectID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("remove subject files failed: %w", err)
	}
	return nil
}

func (s *Local) resolve(locator string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(locator))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidLocator
	}
	return filepath.Join(s.root, clean), nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	name = replacer.Replace(name)
	if name == "" || name == "." {
		return "upload"
	}
	return name
}
