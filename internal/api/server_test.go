package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/melodymingle/mingle/internal/config"
	"github.com/melodymingle/mingle/internal/database"
	"github.com/melodymingle/mingle/internal/email"
	"github.com/melodymingle/mingle/internal/realtime"
	"github.com/melodymingle/mingle/internal/spotify"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// testApp bundles the router with the injected dependencies the tests need to
// reach directly.
type testApp struct {
	router *chi.Mux
	server *Server
	db     *database.Service
}

// newTestApp wires a full application against a temp-dir database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	dir := t.TempDir()
	frontendURL := "http://localhost:5173"
	parsed, err := url.Parse(frontendURL)
	require.NoError(t, err)

	cfg := &config.Config{
		ServerAddr:        ":0",
		DataPath:          dir,
		DbPath:            dir,
		PicturePath:       dir,
		FrontendURL:       frontendURL,
		JwtSecret:         "test-secret",
		ParsedFrontendURL: parsed,
	}

	db, err := database.NewService(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Init())

	srv := NewServer(cfg, db, realtime.NewBroker(),
		email.NewEmailService(email.SMTPServerConfig{}),
		spotify.NewClient("client-id", "client-secret", "http://localhost:3000/auth/spotify/callback"))

	router := chi.NewRouter()
	srv.RegisterRoutes(router)

	return &testApp{router: router, server: srv, db: db}
}

// do issues a JSON request against the router. An empty token leaves the
// request unauthenticated.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON response body into dst.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// errorMessage extracts the "error" field of a standard error response.
func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

// registerUser registers an account and returns the new user's id.
func (app *testApp) registerUser(t *testing.T, emailAddr, username, password string) string {
	t.Helper()

	rec := app.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"eMail":       emailAddr,
		"dateOfBirth": "2000-01-01",
		"username":    username,
		"password":    password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.User.ID)
	return body.User.ID
}

// loginUser logs in and returns the bearer token.
func (app *testApp) loginUser(t *testing.T, emailAddr, password string) string {
	t.Helper()

	rec := app.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"eMail":    emailAddr,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}
