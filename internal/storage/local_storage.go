package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/soonsulleng/guide-backend/pkg/logger"
)

// LocalStorage writes images below a directory on the server's disk
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	root = withTrailingSlash(root)
	if err := os.MkdirAll(filepath.Join(filepath.FromSlash(root), uploadFolder), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Save copies the upload to <root>/uploads/<uuid><ext> and returns that path
func (s *LocalStorage) Save(ctx context.Context, input *UploadInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.root + NewObjectKey(input.Filename)

	f, err := os.OpenFile(filepath.FromSlash(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	written, err := io.Copy(f, input.Data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filepath.FromSlash(path))
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	logger.Debug("Image stored on local disk", map[string]interface{}{
		"path":  path,
		"bytes": written,
	})
	return path, nil
}
