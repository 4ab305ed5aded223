// Package storage holds uploaded blobs (avatars, cover photos) on local
// disk. The returned URL path is what gets stored on the user document; a
// CDN or object store would slot in behind the same interface.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"zchat/errors"
)

type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &DiskStore{root: root, baseURL: baseURL}, nil
}

// SaveImage sniffs the payload, rejects anything that is not an image, and
// writes it under kind/ with a generated name. The extension comes from the
// detected type, never from the client.
func (s *DiskStore) SaveImage(kind string, data []byte) (string, error) {
	mime := mimetype.Detect(data)
	if !isImage(mime) {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedUpload, mime.String())
	}

	dir := filepath.Join(s.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + mime.Extension()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + "/" + kind + "/" + name, nil
}

func isImage(mime *mimetype.MIME) bool {
	for _, allowed := range []string{"image/jpeg", "image/png", "image/gif", "image/webp"} {
		if mime.Is(allowed) {
			return true
		}
	}
	return false
}
