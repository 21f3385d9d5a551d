// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fallousenghor/visit-backend/internal/media"
	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with foreign keys enforced
// and every model migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and private
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateModels(db, model.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// FakeHost records uploads and can be told to fail.
type FakeHost struct {
	mu      sync.Mutex
	Err     error
	Uploads []media.Upload
}

// ErrUpload is the failure returned by NewFailingHost.
var ErrUpload = errors.New("media host unavailable")

// NewFailingHost returns a host whose every upload fails.
func NewFailingHost() *FakeHost {
	return &FakeHost{Err: ErrUpload}
}

func (h *FakeHost) Upload(ctx context.Context, u media.Upload) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Uploads = append(h.Uploads, u)
	if h.Err != nil {
		return "", h.Err
	}
	return "https://media.test/" + u.Folder + "/" + u.Key, nil
}

// Count returns the number of upload attempts.
func (h *FakeHost) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Uploads)
}

// FakeRenderer returns a fixed payload without drawing anything.
type FakeRenderer struct {
	Err   error
	Calls int
}

func (r *FakeRenderer) Render(content string) ([]byte, error) {
	r.Calls++
	if r.Err != nil {
		return nil, r.Err
	}
	return []byte("png:" + content), nil
}

// SeqCodes issues predictable codes: code-1, code-2, ...
type SeqCodes struct {
	mu sync.Mutex
	n  int
}

func (g *SeqCodes) NewCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "code-" + strconv.Itoa(g.n)
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
