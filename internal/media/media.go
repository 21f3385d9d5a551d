// Package media uploads logos and QR images to a host that serves them publicly.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/fallousenghor/visit-backend/pkg/config"
	"go.uber.org/zap"
)

// Upload is one object to store.
type Upload struct {
	Folder      string
	Key         string
	Data        []byte
	ContentType string
}

// Host stores an object and returns the URL it is served from.
type Host interface {
	Upload(ctx context.Context, u Upload) (string, error)
}

// New builds the host selected by cfg.Driver.
func New(ctx context.Context, cfg *config.MediaConfig, log *zap.Logger) (Host, error) {
	switch cfg.Driver {
	case "firebase":
		return NewFirebaseHost(ctx, cfg, log)
	case "local", "":
		return NewLocalHost(cfg.LocalDir, cfg.LocalBaseURL)
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.Driver)
	}
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/webp": ".webp",
}

// objectName joins folder and key, adding the extension for the content type.
func objectName(u Upload) (string, error) {
	if u.Key == "" {
		return "", fmt.Errorf("upload key is required")
	}
	if strings.ContainsAny(u.Key, `/\`) || strings.Contains(u.Key, "..") {
		return "", fmt.Errorf("invalid upload key %q", u.Key)
	}
	if len(u.Data) == 0 {
		return "", fmt.Errorf("upload %q is empty", u.Key)
	}
	if path.IsAbs(u.Folder) || strings.Contains(u.Folder, `\`) || path.Clean("/"+u.Folder) != "/"+strings.Trim(u.Folder, "/") {
		return "", fmt.Errorf("invalid upload folder %q", u.Folder)
	}
	return path.Join(u.Folder, u.Key+extensions[u.ContentType]), nil
}
