package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists review photo bytes and returns the storage path recorded on the review.
type ImageStore interface {
	Save(ctx context.Context, input *UploadInput) (string, error)
}

// UploadInput holds one uploaded file
type UploadInput struct {
	Filename    string // client-supplied name, only the extension is kept
	ContentType string
	Size        int64
	Data        io.Reader
}

const uploadFolder = "uploads"

// NewObjectKey generates a unique key such as uploads/<uuid>.jpg
func NewObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", uploadFolder, uuid.New().String(), ext)
}

// withTrailingSlash ensures root + key forms a path
func withTrailingSlash(root string) string {
	root = strings.ReplaceAll(root, `\`, "/")
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}
