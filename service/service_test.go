package service

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/emzola/biblioteca/config"
	"github.com/emzola/biblioteca/data/dto"
	"github.com/emzola/biblioteca/internal/jsonlog"
	"github.com/emzola/biblioteca/repository"
	"github.com/emzola/biblioteca/repository/database"
	"github.com/stretchr/testify/require"
)

type fakeCoverStore struct {
	mu   sync.Mutex
	puts map[string]string
}

func (f *fakeCoverStore) PutCover(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[key] = contentType
	return "https://covers.example.com/" + key, nil
}

func newTestService(t testing.TB, covers CoverStore) *service {
	t.Helper()
	var cfg config.Config
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "biblioteca.db") + "?_pragma=busy_timeout(5000)"
	cfg.Database.MaxIdleTime = "15m"
	db, err := database.OpenDBConn(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.New(db)
	require.NoError(t, repo.Migrate(context.Background()))
	svc, err := New(cfg, jsonlog.New(io.Discard, jsonlog.LevelOff), repo, covers)
	require.NoError(t, err)
	return svc
}

func ptr[T any](v T) *T {
	return &v
}

func createBody(title, author string, year int32) dto.CreateBookRequestBody {
	return dto.CreateBookRequestBody{Title: title, Author: author, Year: year}
}
