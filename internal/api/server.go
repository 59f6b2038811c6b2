package api

import (
	"encoding/json"
	"net/http"

	"github.com/melodymingle/mingle/internal/config"
	"github.com/melodymingle/mingle/internal/database"
	"github.com/melodymingle/mingle/internal/email"
	"github.com/melodymingle/mingle/internal/realtime"
	"github.com/melodymingle/mingle/internal/spotify"
)

// Server is the main struct for the API. It holds all dependencies required
// by the HTTP handlers, such as the application configuration and the database
// service. Passing them in explicitly keeps the application modular and easy
// to test — no module-level globals.
type Server struct {
	config  *config.Config
	db      *database.Service
	broker  *realtime.Broker
	email   *email.EmailService
	spotify *spotify.Client
}

// NewServer is a constructor function that creates and returns a new instance
// of the Server with all its dependencies wired in.
func NewServer(cfg *config.Config, db *database.Service, broker *realtime.Broker, emailSvc *email.EmailService, spotifyClient *spotify.Client) *Server {
	return &Server{
		config:  cfg,
		db:      db,
		broker:  broker,
		email:   emailSvc,
		spotify: spotifyClient,
	}
}

// envelope is a custom map type used for creating structured JSON responses,
// e.g. `envelope{"event": eventObject}`.
type envelope map[string]interface{}

// writeJSON is a helper method for sending JSON responses. It marshals the
// data and sets the appropriate 'Content-Type' header, centralizing response
// logic so all JSON responses are consistent.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}, headers ...http.Header) {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		// If marshaling fails we can't trust our own JSON error format either.
		http.Error(w, "Internal Server Error: Failed to marshal JSON", http.StatusInternalServerError)
		return
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

// errorJSON is a helper method for sending standardized JSON error responses
// in the form `{"error": "message"}`. Defaults to a 500 when no status is
// provided.
func (s *Server) errorJSON(w http.ResponseWriter, err error, status ...int) {
	statusCode := http.StatusInternalServerError
	if len(status) > 0 {
		statusCode = status[0]
	}

	s.writeJSON(w, statusCode, envelope{"error": err.Error()})
}
