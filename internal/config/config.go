package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all configuration for the application. By centralizing these
// settings, we make the application easier to manage and deploy.
type Config struct {
	// --- Server & Paths ---
	ServerAddr  string
	DataPath    string
	DbPath      string
	PicturePath string
	FrontendURL string

	// --- Security ---
	JwtSecret string

	// --- Email (SMTP) ---
	SmtpHost   string
	SmtpPort   int
	SmtpUser   string
	SmtpPass   string
	SmtpSender string

	// --- Spotify OAuth 2.0 ---
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURL  string

	// Parsed version of FrontendURL for easy access to its components.
	// Used for the SSE stream's CORS header.
	ParsedFrontendURL *url.URL
}

// New creates a new Config instance by loading values from environment variables.
// It validates that critical variables are present and will return an error if
// the configuration is invalid, preventing the server from starting.
func New() (*Config, error) {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	cfg := &Config{
		ServerAddr:          os.Getenv("SERVER_ADDR"),
		DataPath:            os.Getenv("DATA_PATH"),
		JwtSecret:           os.Getenv("JWT_SECRET"),
		FrontendURL:         os.Getenv("FRONTEND_URL"),
		SmtpHost:            os.Getenv("SMTP_HOST"),
		SmtpPort:            port,
		SmtpUser:            os.Getenv("SMTP_USER"),
		SmtpPass:            os.Getenv("SMTP_PASS"),
		SmtpSender:          os.Getenv("SMTP_SENDER"),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SpotifyRedirectURL:  os.Getenv("CALLBACK_REDIRECT_URL"),
	}

	// --- Provide sensible defaults for non-critical values ---
	if cfg.DataPath == "" {
		cfg.DataPath = "./data"
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":3000"
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:5173"
	}

	// --- Validate critical required values ---
	// The application will "fail fast" if these are not set.
	if cfg.JwtSecret == "" {
		return nil, errors.New("FATAL: JWT_SECRET environment variable is not set")
	}

	parsedURL, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		return nil, errors.New("FATAL: Invalid FRONTEND_URL format")
	}
	cfg.ParsedFrontendURL = parsedURL

	cfg.DbPath = filepath.Join(cfg.DataPath, "databases")
	cfg.PicturePath = filepath.Join(cfg.DataPath, "profile_pictures")

	return cfg, nil
}
