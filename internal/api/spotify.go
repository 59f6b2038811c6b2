package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// spotifyTokenHeader is where callers put the provider access token for the
// pass-through endpoints. The token used to travel in the URL path, where it
// ended up in access logs; a header keeps it out of them.
const spotifyTokenHeader = "X-Spotify-Token"

// handleSpotifyRefresh checks whether the authenticated user's stored access
// token has expired and, if so, exchanges the refresh token for a new one and
// updates the stored row. The frontend calls this before any Spotify request.
func (s *Server) handleSpotifyRefresh(w http.ResponseWriter, r *http.Request) {
	user, err := s.getUserFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}

	info, err := s.db.GetSpotifyAuthInfoByUserID(s.db.DB(), user.ID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("No Spotify account linked to this user"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// Stored expiry and the clock are both unix seconds.
	if info.ExpiresTimestamp >= time.Now().Unix() {
		s.writeJSON(w, http.StatusOK, envelope{"message": "Access token not expired"})
		return
	}

	tokens, err := s.spotify.Refresh(r.Context(), info.RefreshToken)
	if err != nil {
		log.Printf("ERROR: Spotify token refresh failed for user %s: %v", user.ID, err)
		s.errorJSON(w, errors.New("Error refreshing access token"), http.StatusInternalServerError)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.UpdateSpotifyTokens(tx, user.ID, tokens.AccessToken, time.Now().Unix()+tokens.ExpiresIn)
	})
	if err != nil {
		log.Printf("ERROR: could not store refreshed Spotify tokens: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "Access token refreshed"})
}

// handleSpotifyTopArtists proxies the provider's top-artists listing,
// flattened to a name array.
func (s *Server) handleSpotifyTopArtists(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(spotifyTokenHeader)
	if token == "" {
		s.errorJSON(w, errors.New("Spotify access token is required"), http.StatusBadRequest)
		return
	}

	names, err := s.spotify.TopArtists(r.Context(), token)
	if err != nil {
		log.Printf("ERROR: could not fetch top artists: %v", err)
		s.errorJSON(w, errors.New("Internal server error"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, names)
}

// handleSpotifyTopTracks proxies the provider's top-tracks listing, flattened
// to a name array.
func (s *Server) handleSpotifyTopTracks(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(spotifyTokenHeader)
	if token == "" {
		s.errorJSON(w, errors.New("Spotify access token is required"), http.StatusBadRequest)
		return
	}

	names, err := s.spotify.TopTracks(r.Context(), token)
	if err != nil {
		log.Printf("ERROR: could not fetch top tracks: %v", err)
		s.errorJSON(w, errors.New("Internal server error"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, names)
}

// handleSpotifyUnlink removes a user's stored Spotify link.
func (s *Server) handleSpotifyUnlink(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := s.db.GetSpotifyAuthInfoByUserID(s.db.DB(), userID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteSpotifyAuthInfo(tx, userID)
	})
	if err != nil {
		log.Printf("ERROR: could not unlink Spotify account for user %s: %v", userID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "Spotify account unlinked"})
}
