package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emzola/biblioteca/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3CoverStoreURLs(t *testing.T) {
	var cfg config.Config
	cfg.S3.Bucket = "covers"
	cfg.S3.Region = "sa-east-1"
	cfg.S3.AccessKeyID = "key"
	cfg.S3.SecretAccessKey = "secret"

	store, err := NewS3CoverStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://covers.s3.sa-east-1.amazonaws.com", store.baseURL)

	cfg.S3.Endpoint = "http://localhost:9000/"
	store, err = NewS3CoverStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/covers", store.baseURL)
}

func TestRedirectPolicy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/c", nil)
	via := []*http.Request{
		httptest.NewRequest(http.MethodGet, "http://example.com/a", nil),
		httptest.NewRequest(http.MethodGet, "http://example.com/b", nil),
	}
	assert.NoError(t, redirectPolicy(req, via[:1]))
	assert.ErrorContains(t, redirectPolicy(req, via), "stopped after 2 redirects at http://example.com/c")
}

func TestHTTPClientSetsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "aws-sdk-go-v2")
	res, err := NewHTTPClient("biblioteca", 5*time.Second).Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "biblioteca aws-sdk-go-v2", got)
}
