package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/melodymingle/mingle/internal/database"
	"github.com/stretchr/testify/require"
)

// linkSpotify seeds a stored token row for a user directly.
func (app *testApp) linkSpotify(t *testing.T, userID string, expiresTimestamp int64) {
	t.Helper()

	err := app.db.Write(func(tx *sql.Tx) error {
		return app.db.CreateSpotifyAuthInfo(tx, &database.SpotifyAuthInfo{
			UserID:           userID,
			AccessToken:      "stored-access-token",
			TokenType:        "Bearer",
			Scope:            "user-top-read user-read-private",
			ExpiresIn:        3600,
			ExpiresTimestamp: expiresTimestamp,
			RefreshToken:     "stored-refresh-token",
		})
	})
	require.NoError(t, err)
}

// fakeSpotifyProvider serves the token and top-items endpoints and points the
// app's client at itself.
func fakeSpotifyProvider(t *testing.T, app *testApp) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "refreshed-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/me/top/artists", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"name":"Bicep"}]}`))
	})
	mux.HandleFunc("/me/top/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"name":"Glue"},{"name":"Opal"}]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	app.server.spotify.OverrideAuthEndpoint(server.URL+"/authorize", server.URL+"/api/token")
	app.server.spotify.APIBaseURL = server.URL
	return server
}

func TestSpotifyRefreshWithoutLinkedAccount(t *testing.T) {
	app := newTestApp(t)
	app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	rec := app.do(t, http.MethodGet, "/spotify/refresh", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "No Spotify account linked to this user", errorMessage(t, rec))
}

func TestSpotifyRefreshSkipsUnexpiredToken(t *testing.T) {
	app := newTestApp(t)
	userID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")
	app.linkSpotify(t, userID, time.Now().Unix()+3600)

	rec := app.do(t, http.MethodGet, "/spotify/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	require.Equal(t, "Access token not expired", body.Message)
}

func TestSpotifyRefreshExchangesExpiredToken(t *testing.T) {
	app := newTestApp(t)
	userID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")
	app.linkSpotify(t, userID, time.Now().Unix()-10)
	fakeSpotifyProvider(t, app)

	rec := app.do(t, http.MethodGet, "/spotify/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	require.Equal(t, "Access token refreshed", body.Message)

	// The stored row carries the new access token and a future expiry.
	info, err := app.db.GetSpotifyAuthInfoByUserID(app.db.DB(), userID)
	require.NoError(t, err)
	require.Equal(t, "refreshed-access-token", info.AccessToken)
	require.Greater(t, info.ExpiresTimestamp, time.Now().Unix())
	// Spotify does not rotate refresh tokens; the stored one survives.
	require.Equal(t, "stored-refresh-token", info.RefreshToken)
}

func TestSpotifyTopItemsUseHeaderToken(t *testing.T) {
	app := newTestApp(t)
	app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")
	fakeSpotifyProvider(t, app)

	t.Run("missing header", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/spotify/top-artists", token, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid provider token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/spotify/top-artists", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Spotify-Token", "provider-token")
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var names []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
		require.Equal(t, []string{"Bicep"}, names)
	})

	t.Run("provider rejects token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/spotify/top-artists", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Spotify-Token", "expired-token")
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSpotifyUnlink(t *testing.T) {
	app := newTestApp(t)
	userID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	// Nothing linked yet.
	rec := app.do(t, http.MethodDelete, "/spotify/"+userID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	app.linkSpotify(t, userID, time.Now().Unix()+3600)

	rec = app.do(t, http.MethodDelete, "/spotify/"+userID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	require.Equal(t, "Spotify account unlinked", body.Message)

	rec = app.do(t, http.MethodGet, "/spotify/refresh", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
