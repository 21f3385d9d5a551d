package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalHost writes objects below a directory that the HTTP server exposes at BaseURL.
type LocalHost struct {
	Dir     string
	BaseURL string
}

func NewLocalHost(dir, baseURL string) (*LocalHost, error) {
	if dir == "" {
		return nil, fmt.Errorf("local media directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalHost{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (h *LocalHost) Upload(ctx context.Context, u Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := objectName(u)
	if err != nil {
		return "", err
	}

	target := filepath.Join(h.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder for %s: %w", name, err)
	}
	if err := os.WriteFile(target, u.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return h.BaseURL + "/" + name, nil
}
