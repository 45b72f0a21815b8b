package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kenshuhub/kenshuhub-backend/internal/platform/logger"
)

type localStore struct {
	log *logger.Logger
	dir string
}

func newLocalStore(log *logger.Logger, dir string) (Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "videos"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir %s: %w", dir, err)
	}
	return &localStore{log: log.With("storage", "local"), dir: dir}, nil
}

// path rejects anything that would escape the media directory.
func (s *localStore) path(filename string) (string, error) {
	clean := filepath.Base(filepath.Clean(filename))
	if clean == "" || clean == "." || clean == ".." {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *localStore) Save(ctx context.Context, filename string, r io.Reader) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(p)
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func (s *localStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	p, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

func (s *localStore) Delete(ctx context.Context, filename string) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	return nil
}
