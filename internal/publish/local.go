package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ Backend = (*LocalBackend)(nil)

// LocalBackend keeps published sites in a directory, optionally served under
// BaseURL.
type LocalBackend struct {
	Root    string
	BaseURL string
}

func NewLocalBackend(root, baseURL string) (*LocalBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create publish directory: %w", err)
	}
	return &LocalBackend{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (b *LocalBackend) Put(_ context.Context, path string, data []byte, _ string) error {
	target, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), target)
}

func (b *LocalBackend) Clear(_ context.Context, dir string) error {
	target, err := b.resolve(dir)
	if err != nil {
		return err
	}
	return os.RemoveAll(target)
}

func (b *LocalBackend) Location(path string) string {
	if b.BaseURL != "" {
		return b.BaseURL + "/" + path
	}
	return filepath.Join(b.Root, filepath.FromSlash(path))
}

// resolve maps a storage path into Root refusing anything that escapes it.
func (b *LocalBackend) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return filepath.Join(b.Root, clean), nil
}
