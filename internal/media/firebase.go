package media

import (
	"context"
	"encoding/base64"
	"fmt"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/fallousenghor/visit-backend/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FirebaseHost stores objects in a Firebase Storage bucket with public read access.
type FirebaseHost struct {
	bucket     *storage.BucketHandle
	bucketName string
	log        *zap.Logger
}

// NewFirebaseHost authenticates with base64 service account JSON when set,
// otherwise with the credentials file, otherwise with application defaults.
func NewFirebaseHost(ctx context.Context, cfg *config.MediaConfig, log *zap.Logger) (*FirebaseHost, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
		log.Info("Media host: using credentials from FIREBASE_SERVICE_ACCOUNT_JSON")
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		log.Info("Media host: using credentials file", zap.String("path", cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: cfg.FirebaseBucket}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting storage client: %w", err)
	}

	bucket, err := client.Bucket(cfg.FirebaseBucket)
	if err != nil {
		return nil, fmt.Errorf("error opening bucket %s: %w", cfg.FirebaseBucket, err)
	}

	return &FirebaseHost{bucket: bucket, bucketName: cfg.FirebaseBucket, log: log}, nil
}

func (h *FirebaseHost) Upload(ctx context.Context, u Upload) (string, error) {
	name, err := objectName(u)
	if err != nil {
		return "", err
	}

	w := h.bucket.Object(name).NewWriter(ctx)
	w.ContentType = u.ContentType
	w.PredefinedACL = "publicRead"
	w.CacheControl = "public, max-age=31536000"

	if _, err := w.Write(u.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", h.bucketName, name)
	h.log.Debug("Uploaded object", zap.String("url", url), zap.Int("bytes", len(u.Data)))
	return url, nil
}
