package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gallery/internal/logging"
	"github.com/dmitrijs2005/gallery/internal/server/auth"
	"github.com/dmitrijs2005/gallery/internal/server/metrics"
	"github.com/dmitrijs2005/gallery/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gallery/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv     *httptest.Server
	tokens  *auth.TokenService
	metrics *metrics.Auth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService([]byte("rest-test-secret"), 24*time.Hour)
	require.NoError(t, err)

	m := metrics.New(nil)
	logger := logging.Nop()
	us := services.NewUserService(nil, repomanager.NewMemoryRepositoryManager(), hasher, tokens, m, logger)

	hs := NewHTTPServer("127.0.0.1:0", logger, us, tokens, m, Options{})
	srv := httptest.NewServer(hs.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, tokens: tokens, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	return doRequest(t, e.srv.URL, method, path, token, body)
}

func doRequest(t *testing.T, base, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, base+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
