package api

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/melodymingle/mingle/internal/auth"
	"github.com/melodymingle/mingle/internal/database"
)

// --- Structs for JSON Payloads ---

// registerUserPayload defines the structure of the JSON body expected for user
// registration. The email key is "eMail" because that is what the frontend
// sends.
type registerUserPayload struct {
	Email       string `json:"eMail" validate:"required,email"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

// loginUserPayload defines the structure of the JSON body expected for user login.
type loginUserPayload struct {
	Email    string `json:"eMail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- PASSWORD-BASED AUTH ---

// handleRegister handles creation of a new user account via email/password.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerUserPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	// 1. Reject duplicates with a message identifying which field collided.
	// The username check is a pre-check only; there is no unique constraint
	// backing it up.
	_, err := s.db.GetUserByEmail(s.db.DB(), payload.Email)
	if err == nil {
		s.errorJSON(w, errors.New("User with this email already exists"), http.StatusBadRequest)
		return
	}
	if !isNoRows(err) {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	_, err = s.db.GetUserByUsername(s.db.DB(), payload.Username)
	if err == nil {
		s.errorJSON(w, errors.New("User with this username already exists"), http.StatusBadRequest)
		return
	}
	if !isNoRows(err) {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// 2. Hash the password. The plaintext never touches the database.
	hashedPassword, err := auth.HashPassword(payload.Password)
	if err != nil {
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	// 3. Insert the new user within the serialized write transaction.
	var newUser *database.User
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newUser, txErr = s.db.CreateUser(tx, &database.User{
			Email:        payload.Email,
			Username:     payload.Username,
			DateOfBirth:  payload.DateOfBirth,
			PasswordHash: hashedPassword,
		})
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not create user: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// 4. Respond with the created record. The hash is never echoed back.
	s.writeJSON(w, http.StatusCreated, envelope{"user": toUserResponse(newUser, nil)})
}

// handleLogin handles authentication for an existing user via email/password.
// A missing account and a wrong password are deliberately distinguishable,
// matching what the frontend expects.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginUserPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	user, err := s.db.GetUserByEmail(s.db.DB(), payload.Email)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User does not exist"), http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// Check the provided password against the stored hash.
	if !auth.CheckPasswordHash(payload.Password, user.PasswordHash) {
		s.errorJSON(w, errors.New("Incorrect password"), http.StatusUnauthorized)
		return
	}

	// Generate a JWT for the authenticated session.
	tokenString, err := auth.GenerateJWT(user.ID, user.Email, user.Username, s.config.JwtSecret)
	if err != nil {
		s.errorJSON(w, errors.New("could not generate token"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"accessToken": tokenString})
}

// --- SPOTIFY ACCOUNT LINKING ---

// generateOAuthState creates a random state string for the authorization flow.
func generateOAuthState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// handleSpotifyAuthorize is the entry point of the link flow. It redirects the
// user to Spotify's consent page with show_dialog forced on, so re-linking a
// different account always prompts.
func (s *Server) handleSpotifyAuthorize(w http.ResponseWriter, r *http.Request) {
	url := s.spotify.AuthCodeURL(generateOAuthState())
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleSpotifyRedirect forwards the provider's query string to the frontend
// redirect page, which re-issues the callback with the user id attached.
func (s *Server) handleSpotifyRedirect(w http.ResponseWriter, r *http.Request) {
	redirectURL := fmt.Sprintf("%s/spotify-redirect?%s", s.config.FrontendURL, r.URL.RawQuery)
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// handleSpotifyCallback finishes the link flow: it exchanges the authorization
// code for a token set and stores it against the user.
func (s *Server) handleSpotifyCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	userID := r.URL.Query().Get("userId")

	if code == "" {
		s.errorJSON(w, errors.New("code not provided!"), http.StatusBadRequest)
		return
	}
	if state == "" {
		s.errorJSON(w, errors.New("state not provided!"), http.StatusBadRequest)
		return
	}
	if userID == "" {
		s.errorJSON(w, errors.New("user not authenticated!"), http.StatusBadRequest)
		return
	}

	// 1. Exchange the authorization code for an access/refresh token pair.
	tokens, err := s.spotify.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("ERROR: Spotify code exchange failed: %v", err)
		s.errorJSON(w, errors.New("failed to exchange code for token"), http.StatusInternalServerError)
		return
	}

	// 2. Store the token set with an absolute expiry (unix seconds). Any
	// previously stored row for this user is replaced.
	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.CreateSpotifyAuthInfo(tx, &database.SpotifyAuthInfo{
			UserID:           userID,
			AccessToken:      tokens.AccessToken,
			TokenType:        tokens.TokenType,
			Scope:            tokens.Scope,
			ExpiresIn:        tokens.ExpiresIn,
			ExpiresTimestamp: time.Now().Unix() + tokens.ExpiresIn,
			RefreshToken:     tokens.RefreshToken,
		})
	})
	if err != nil {
		log.Printf("ERROR: could not store Spotify tokens: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// 3. Send the user back to their profile page.
	http.Redirect(w, r, s.config.FrontendURL+"/profile", http.StatusTemporaryRedirect)
}
