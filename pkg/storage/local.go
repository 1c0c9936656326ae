package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored files are served.
const PublicPrefix = "/uploads"

var ErrInvalidPath = errors.New("invalid storage path")

// LocalStore keeps uploaded files on disk:
//
//	<root>/
//	  <dir>/
//	    <uuid><ext>
//
// and hands back public paths of the form /uploads/<dir>/<uuid><ext>.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Root() string { return s.root }

// Save writes r under dir with a fresh name that keeps the original extension.
func (s *LocalStore) Save(ctx context.Context, dir, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if dir == "" || strings.Contains(dir, "..") {
		return "", ErrInvalidPath
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext

	destDir := filepath.Join(s.root, filepath.FromSlash(dir))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	destPath := filepath.Join(destDir, name)
	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return path.Join(PublicPrefix, dir, name), nil
}

// Delete removes a file previously returned by Save. Deleting a missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, publicPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel := strings.TrimPrefix(publicPath, PublicPrefix+"/")
	if rel == publicPath || rel == "" || strings.Contains(rel, "..") {
		return ErrInvalidPath
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
