package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"credstore/config"
	deliverycontext "credstore/internal/delivery/context"
	"credstore/internal/delivery/http/router"
	"credstore/internal/delivery/http/router/handler"
	domainerrors "credstore/internal/domain/errors"
	"credstore/internal/infra/auth"
	"credstore/internal/infra/persistence/accountstore"
	"credstore/internal/infra/persistence/filedoc"
	"credstore/internal/infra/validation"
	"credstore/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	echo *echo.Echo
	path string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "dzejson.json")
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := accountstore.NewStore(filedoc.New(cfg.Storage.Path), logger)
	require.NoError(t, store.Ensure(context.Background(), cfg.Storage.CreateIfMissing))

	uc := impl.NewCredentialService(impl.CredentialServiceParams{
		AccountRepo: store,
		Hasher:      auth.NewSHA3Hasher(),
		Validator:   validation.NewCredentialValidator(cfg),
		Config:      cfg,
		Logger:      logger,
	})

	e := NewEcho(cfg, logger, router.RouterParams{
		CredentialHandler: handler.NewCredentialHandler(uc),
		HealthHandler:     handler.NewHealthHandler(uc),
	})

	return &testServer{echo: e, path: cfg.Storage.Path}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) domainerrors.ErrorBody {
	t.Helper()

	var body domainerrors.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return body
}

func credentials(username, password string) string {
	return fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
}

func TestServer_RegisterLoginList(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = true })

	rec := srv.do(http.MethodPost, "/register", credentials("alice", "secret1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"Success!"`, rec.Body.String())

	rec = srv.do(http.MethodPost, "/login", credentials("alice", "secret1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"Success"`, rec.Body.String())

	rec = srv.do(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var accounts []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "alice", accounts[0]["username"])
	assert.Len(t, accounts[0]["password"], 64)
	assert.NotEqual(t, "secret1", accounts[0]["password"])

	onDisk, err := os.ReadFile(srv.path)
	require.NoError(t, err)
	assert.JSONEq(t, rec.Body.String(), string(onDisk))
}

func TestServer_ListEmpty(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = true })

	rec := srv.do(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func semantic(cfg *config.Config) {
	cfg.Storage.CreateIfMissing = true
	cfg.HTTP.StatusCodes = config.StatusCodesSemantic
}

func TestServer_RegisterFailures(t *testing.T) {
	srv := newTestServer(t, semantic)
	require.Equal(t, http.StatusOK, srv.do(http.MethodPost, "/register", credentials("existing", "longenough")).Code)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantE      string
		wantCode   string
	}{
		{"empty", credentials("", ""), http.StatusBadRequest, "Cannot pass empty username nor password.", "EMPTY_FIELDS"},
		{"special characters", credentials("ab!", "longenough"), http.StatusBadRequest, "Special characters used in username.", "INVALID_CHARACTER"},
		{"too short", credentials("ab", "longenough"), http.StatusBadRequest, "Either password and username must be longer than 5 characters.", "INVALID_LENGTH"},
		{"taken", credentials("existing", "longenough"), http.StatusConflict, "Username is taken.", "USERNAME_TAKEN"},
		{"malformed json", `{"username":`, http.StatusBadRequest, "Invalid request body.", "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, "/register", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.wantE, body.E)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}

	var accounts []map[string]string
	require.NoError(t, json.Unmarshal(srv.do(http.MethodGet, "/users", "").Body.Bytes(), &accounts))
	assert.Len(t, accounts, 1)
}

func TestServer_LoginFailuresLookAlike(t *testing.T) {
	srv := newTestServer(t, semantic)
	require.Equal(t, http.StatusOK, srv.do(http.MethodPost, "/register", credentials("alice", "secret1")).Code)

	wrongPassword := srv.do(http.MethodPost, "/login", credentials("alice", "secret2"))
	unknownUser := srv.do(http.MethodPost, "/login", credentials("nobody", "secret1"))

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownUser.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Equal(t, "AUTHENTICATION_FAILED", decodeError(t, wrongPassword).Code)
}

func TestServer_LegacyStatusCodesByDefault(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = true })
	require.Equal(t, http.StatusOK, srv.do(http.MethodPost, "/register", credentials("existing", "longenough")).Code)

	tests := []struct {
		name   string
		target string
		body   string
		wantE  string
	}{
		{"empty", "/register", credentials("", ""), "Cannot pass empty username nor password."},
		{"too short", "/register", credentials("ab", "longenough"), "Either password and username must be longer than 5 characters."},
		{"taken", "/register", credentials("existing", "longenough"), "Username is taken."},
		{"unknown user", "/login", credentials("ghost", "longenough"), "Invalid username or password."},
		{"wrong password", "/login", credentials("existing", "wrongpassword"), "Invalid username or password."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tt.wantE, decodeError(t, rec).E)
		})
	}
}

func TestServer_LengthMessageFollowsConfig(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		semantic(cfg)
		cfg.Validation.MinLength = 8
	})

	rec := srv.do(http.MethodPost, "/register", credentials("alicebob", "sixsix"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "Either password and username must be longer than 8 characters.", body.E)
	assert.Equal(t, "INVALID_LENGTH", body.Code)
}

func TestServer_MissingDocument(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = false })

	for _, tc := range []struct{ method, target, body string }{
		{http.MethodGet, "/users", ""},
		{http.MethodPost, "/register", credentials("alice", "secret1")},
		{http.MethodPost, "/login", credentials("alice", "secret1")},
	} {
		rec := srv.do(tc.method, tc.target, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.target)

		body := decodeError(t, rec)
		assert.Equal(t, "STORAGE_UNAVAILABLE", body.Code)
		assert.NotContains(t, body.E, srv.path)
	}

	_, err := os.Stat(srv.path)
	assert.True(t, os.IsNotExist(err), "failed requests must not create the document")

	rec := srv.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = true })

	rec := srv.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_RequestID(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = true })

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set(deliverycontext.HeaderXRequestID, "trace-me")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	assert.Equal(t, "trace-me", rec.Header().Get(deliverycontext.HeaderXRequestID))

	rec = srv.do(http.MethodGet, "/users", "")
	assert.NotEmpty(t, rec.Header().Get(deliverycontext.HeaderXRequestID))
}

func TestServer_BodyLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Storage.CreateIfMissing = true
		cfg.HTTP.MaxRequestBodySize = "1K"
	})

	rec := srv.do(http.MethodPost, "/register", credentials("alice", strings.Repeat("x", 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "HTTP_ERROR", decodeError(t, rec).Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = true })

	rec := srv.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "HTTP_ERROR", decodeError(t, rec).Code)
}

func TestServer_ConcurrentRegistrations(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Storage.CreateIfMissing = true })

	const n = 16
	var wg sync.WaitGroup
	codes := make([]int, n)

	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = srv.do(http.MethodPost, "/register", credentials(fmt.Sprintf("racer%02d", i), "longenough")).Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	var accounts []map[string]string
	require.NoError(t, json.Unmarshal(srv.do(http.MethodGet, "/users", "").Body.Bytes(), &accounts))
	assert.Len(t, accounts, n)
}
