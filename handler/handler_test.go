package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emzola/biblioteca/config"
	"github.com/emzola/biblioteca/internal/jsonlog"
	"github.com/emzola/biblioteca/repository"
	"github.com/emzola/biblioteca/repository/database"
	"github.com/emzola/biblioteca/service"
	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeCoverStore struct{}

func (fakeCoverStore) PutCover(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://covers.example.com/" + key, nil
}

func newTestConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Server.Env = "testing"
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "biblioteca.db") + "?_pragma=busy_timeout(5000)"
	cfg.Database.MaxIdleTime = "15m"
	cfg.Metrics.Enabled = true
	cfg.BasicAuth.Username = "admin"
	cfg.BasicAuth.Password = "secret"
	cfg.Cors.TrustedOrigins = []string{"http://localhost:5173"}
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, covers service.CoverStore) http.Handler {
	t.Helper()
	db, err := database.OpenDBConn(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.New(db)
	require.NoError(t, repo.Migrate(context.Background()))
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	svc, err := service.New(cfg, logger, repo, covers)
	require.NoError(t, err)
	clients := ttlcache.New[string, *rate.Limiter](ttlcache.WithTTL[string, *rate.Limiter](3 * time.Minute))
	return New(cfg, logger, clients, svc).Routes()
}

type response struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

func do(t *testing.T, srv http.Handler, method, target string, body string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return decodeResponse(t, rec)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	res := response{Code: rec.Code, Header: rec.Header()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.Body))
	}
	return res
}

func bookField(t *testing.T, res response, key string) any {
	t.Helper()
	book, ok := res.Body["book"].(map[string]any)
	require.True(t, ok, "response has no book: %v", res.Body)
	return book[key]
}

func TestHealthcheck(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)
	res := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "available", res.Body["status"])
	assert.Equal(t, map[string]any{"environment": "testing", "version": Version}, res.Body["system_info"])
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestWatchmenScenario(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	res := do(t, srv, http.MethodPost, "/livros", `{"title": "Watchmen", "author": "Alan Moore", "year": 1987}`)
	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, "available", bookField(t, res, "status"))
	assert.Nil(t, bookField(t, res, "loan_date"))
	id := int(bookField(t, res, "id").(float64))
	path := "/livros/" + itoa(id)
	assert.Equal(t, path, res.Header.Get("Location"))

	res = do(t, srv, http.MethodPost, path+"/emprestar", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "loaned", bookField(t, res, "status"))
	assert.NotNil(t, bookField(t, res, "loan_date"))

	res = do(t, srv, http.MethodPost, path+"/emprestar", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, service.ReasonAlreadyLoaned, res.Body["error"])

	res = do(t, srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, srv, http.MethodPost, "/api"+path+"/devolver", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "available", bookField(t, res, "status"))
	assert.Nil(t, bookField(t, res, "loan_date"))

	res = do(t, srv, http.MethodPost, path+"/devolver", "")
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, srv, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "book successfully deleted", res.Body["message"])

	res = do(t, srv, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestCreateBookErrors(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/livros", `{"title": "Maus", "author": "Art Spiegelman", "year": 1991}`).Code)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "empty body", body: "", code: http.StatusBadRequest},
		{name: "malformed", body: `{"title": "Maus"`, code: http.StatusBadRequest},
		{name: "unknown field", body: `{"title": "Sandman", "author": "Neil Gaiman", "year": 1989, "status": "loaned"}`, code: http.StatusBadRequest},
		{name: "two values", body: `{"title": "Sandman"}{"title": "Sandman"}`, code: http.StatusBadRequest},
		{name: "wrong type", body: `{"title": "Sandman", "author": "Neil Gaiman", "year": "1989"}`, code: http.StatusBadRequest},
		{name: "validation", body: `{"title": "ab", "author": "Neil Gaiman", "year": 1989}`, code: http.StatusUnprocessableEntity},
		{name: "future year", body: `{"title": "Sandman", "author": "Neil Gaiman", "year": 3000}`, code: http.StatusUnprocessableEntity},
		{name: "duplicate title", body: `{"title": "Maus", "author": "Art Spiegelman", "year": 1991}`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, srv, http.MethodPost, "/livros", tt.body)
			assert.Equal(t, tt.code, res.Code)
			assert.NotNil(t, res.Body["error"])
		})
	}

	res := do(t, srv, http.MethodPost, "/livros", `{"title": "ab", "author": "", "year": 1800}`)
	errs, ok := res.Body["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "author")
	assert.Contains(t, errs, "year")
}

func TestListBooks(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)
	for _, body := range []string{
		`{"title": "Watchmen", "author": "Alan Moore", "year": 1987, "genre": "HQ", "publisher": "DC Comics"}`,
		`{"title": "V for Vendetta", "author": "Alan Moore", "year": 1988, "genre": "HQ"}`,
		`{"title": "Dom Casmurro", "author": "Machado de Assis", "year": 1999, "genre": "Romance"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/livros", body).Code)
	}

	res := do(t, srv, http.MethodGet, "/api/livros?search=MOORE&per_page=1", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 2, res.Body["total"])
	assert.EqualValues(t, 1, res.Body["page"])
	assert.EqualValues(t, 1, res.Body["per_page"])
	assert.EqualValues(t, 2, res.Body["last_page"])
	items := res.Body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "V for Vendetta", items[0].(map[string]any)["title"])

	res = do(t, srv, http.MethodGet, "/livros?genre=Romance&per_page=0", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 1, res.Body["total"])
	assert.EqualValues(t, 10, res.Body["per_page"])

	res = do(t, srv, http.MethodGet, "/livros?search=tintin", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []any{}, res.Body["items"])

	res = do(t, srv, http.MethodGet, "/livros?per_page=abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	res = do(t, srv, http.MethodGet, "/livros?status=lost", "")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestUpdateBook(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)
	res := do(t, srv, http.MethodPost, "/livros", `{"title": "Watchmen", "author": "Alan Moore", "year": 1987, "genre": "HQ"}`)
	require.Equal(t, http.StatusCreated, res.Code)
	path := "/livros/" + itoa(int(bookField(t, res, "id").(float64)))

	res = do(t, srv, http.MethodPut, path, `{"publisher": "DC Comics", "genre": null}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "DC Comics", bookField(t, res, "publisher"))
	assert.Nil(t, bookField(t, res, "genre"))
	assert.Equal(t, "Watchmen", bookField(t, res, "title"))

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodPut, path, `{"title": null}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, path, `{"status": "loaned"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPut, "/livros/999", `{"genre": "HQ"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/livros/abc", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodPatch, path, `{}`).Code)
}

func coverRequest(t *testing.T, target, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "cover.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPut, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpdateBookCover(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	t.Run("storage disabled", func(t *testing.T) {
		srv := newTestServer(t, newTestConfig(t), nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, coverRequest(t, "/livros/1/capa", "cover", png))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	srv := newTestServer(t, newTestConfig(t), fakeCoverStore{})
	res := do(t, srv, http.MethodPost, "/livros", `{"title": "Watchmen", "author": "Alan Moore", "year": 1987}`)
	require.Equal(t, http.StatusCreated, res.Code)
	path := "/livros/" + itoa(int(bookField(t, res, "id").(float64))) + "/capa"

	tests := []struct {
		name    string
		target  string
		field   string
		content []byte
		code    int
	}{
		{name: "png", target: path, field: "cover", content: png, code: http.StatusOK},
		{name: "pdf", target: path, field: "cover", content: []byte("%PDF-1.7\n"), code: http.StatusUnsupportedMediaType},
		{name: "wrong field", target: path, field: "image", content: png, code: http.StatusBadRequest},
		{name: "too large", target: path, field: "cover", content: append(append([]byte{}, png...), make([]byte, service.MaxCoverSize+1<<20)...), code: http.StatusRequestEntityTooLarge},
		{name: "missing book", target: "/livros/999/capa", field: "cover", content: png, code: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, coverRequest(t, tt.target, tt.field, tt.content))
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	res = do(t, srv, http.MethodGet, strings.TrimSuffix(path, "/capa"), "")
	cover, _ := bookField(t, res, "cover_url").(string)
	assert.True(t, strings.HasPrefix(cover, "https://covers.example.com/bookcovers/"))
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)
	res := do(t, srv, http.MethodPost, "/livros", `{"title": "Watchmen", "author": "Alan Moore", "year": 1987, "publisher": "DC Comics"}`)
	require.Equal(t, http.StatusCreated, res.Code)
	id := itoa(int(bookField(t, res, "id").(float64)))
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/livros", `{"title": "Maus", "author": "Art Spiegelman", "year": 1991, "publisher": "  "}`).Code)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/livros/"+id+"/emprestar", "").Code)

	res = do(t, srv, http.MethodGet, "/estatisticas", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 2, res.Body["total"])
	assert.EqualValues(t, 1, res.Body["available"])
	assert.EqualValues(t, 1, res.Body["loaned"])
	assert.Equal(t, map[string]any{"DC Comics": float64(1)}, res.Body["by_publisher"])
}

func TestRateLimit(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Limiter.Enabled = true
	cfg.Limiter.RPS = 0.001
	cfg.Limiter.Burst = 2
	srv := newTestServer(t, cfg, nil)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, srv, http.MethodGet, "/health", "").Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	req := httptest.NewRequest(http.MethodOptions, "/livros", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestDebugVars(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_requests_received")
}

func TestOpenAPIDocument(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/spec", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/livros/{id}/emprestar")
}

func TestRecoverPanic(t *testing.T) {
	h := &Handler{logger: jsonlog.New(io.Discard, jsonlog.LevelOff)}
	srv := h.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
