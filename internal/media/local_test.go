package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fallousenghor/visit-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalHostUpload(t *testing.T) {
	dir := t.TempDir()
	host, err := NewLocalHost(dir, "http://localhost:5000/uploads/")
	require.NoError(t, err)

	url, err := host.Upload(context.Background(), Upload{
		Folder:      "qr-codes",
		Key:         "qr_abc",
		Data:        []byte("png"),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/uploads/qr-codes/qr_abc.png", url)

	stored, err := os.ReadFile(filepath.Join(dir, "qr-codes", "qr_abc.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), stored)
}

func TestLocalHostRejectsEmptyUpload(t *testing.T) {
	host, err := NewLocalHost(t.TempDir(), "http://x")
	require.NoError(t, err)

	_, err = host.Upload(context.Background(), Upload{Key: "k"})
	assert.Error(t, err)
	_, err = host.Upload(context.Background(), Upload{Data: []byte("x")})
	assert.Error(t, err)
}

func TestLocalHostHonoursCancelledContext(t *testing.T) {
	host, err := NewLocalHost(t.TempDir(), "http://x")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = host.Upload(ctx, Upload{Key: "k", Data: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSelectsDriver(t *testing.T) {
	host, err := New(context.Background(), &config.MediaConfig{
		Driver: "local", LocalDir: t.TempDir(), LocalBaseURL: "http://x",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalHost{}, host)

	_, err = New(context.Background(), &config.MediaConfig{Driver: "s3"}, zap.NewNop())
	assert.Error(t, err)
}

func TestLocalHostStaysInsideDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "media")
	host, err := NewLocalHost(dir, "http://x/uploads")
	require.NoError(t, err)

	cases := []Upload{
		{Folder: "merchants/logos", Key: "a/../../../../escaped"},
		{Folder: "merchants/logos", Key: `..\..\escaped`},
		{Folder: "merchants/logos", Key: "..escaped"},
		{Folder: "../outside", Key: "escaped"},
		{Folder: "/etc", Key: "escaped"},
	}
	for _, u := range cases {
		u.Data = []byte("x")
		u.ContentType = "image/png"
		_, err := host.Upload(context.Background(), u)
		assert.Error(t, err, "folder=%q key=%q", u.Folder, u.Key)
	}

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "media", entries[0].Name())
}
