package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/melodymingle/mingle/internal/api"
	"github.com/melodymingle/mingle/internal/config"
	"github.com/melodymingle/mingle/internal/database"
	"github.com/melodymingle/mingle/internal/email"
	"github.com/melodymingle/mingle/internal/realtime"
	"github.com/melodymingle/mingle/internal/spotify"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

// main is the entry point for the Melody Mingle backend server.
func main() {
	// --- 1. Load Configuration ---
	// It's a common practice to load configuration from a .env file during development.
	// In a production environment, these would typically be set as actual environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found, using environment variables from the system.")
	}

	cfg, err := config.New()
	if err != nil {
		// A valid configuration is required to run, so we exit if it fails.
		log.Fatalf("FATAL: Failed to load application configuration: %v", err)
	}

	// --- 2. Ensure Required Directories Exist ---
	// The application needs specific directories to store its data. We ensure they
	// are created on startup to prevent runtime errors.
	if err := os.MkdirAll(cfg.DbPath, 0755); err != nil {
		log.Fatalf("FATAL: Failed to create database directory at %s: %v", cfg.DbPath, err)
	}
	if err := os.MkdirAll(cfg.PicturePath, 0755); err != nil {
		log.Fatalf("FATAL: Failed to create picture storage directory at %s: %v", cfg.PicturePath, err)
	}

	log.Println("INFO: Application directories verified.")

	broker := realtime.NewBroker()

	emailService := email.NewEmailService(email.SMTPServerConfig{
		Host:     cfg.SmtpHost,
		Port:     cfg.SmtpPort,
		Username: cfg.SmtpUser,
		Password: cfg.SmtpPass,
		Sender:   cfg.SmtpSender,
	})

	spotifyClient := spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURL)

	log.Println("INFO: Realtime broker, email service and Spotify client initialized.")

	// --- 3. Initialize Database Service ---
	// The database service manages the connection and ensures thread-safe writes.
	dbFullPath := filepath.Join(cfg.DbPath, "mingle.db")
	dbService, err := database.NewService(dbFullPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database service: %v", err)
	}
	// 'defer' ensures that the Close() method is called when the main function exits,
	// gracefully closing the database connection.
	defer dbService.Close()

	log.Println("INFO: Database service initialized successfully.")

	// --- 4. Initialize Database Schema ---
	// This step creates the necessary tables (users, groups, events, etc.) if
	// they do not already exist. It's safe to run on every startup.
	if err := dbService.Init(); err != nil {
		log.Fatalf("FATAL: Failed to initialize database schema: %v", err)
	}

	log.Println("INFO: Database schema verified.")

	// --- 5. Set Up API Server and Routes ---
	// Create a new instance of our API server, injecting the dependencies it
	// needs (config, database, broker, email, Spotify client).
	serverAPI := api.NewServer(cfg, dbService, broker, emailService, spotifyClient)

	// Create a new Chi router. Chi is a lightweight and powerful router for Go.
	router := chi.NewRouter()

	// Register all the application's API endpoints and middleware with the router.
	// This keeps the routing logic clean and organized in the `routes.go` file.
	serverAPI.RegisterRoutes(router)

	log.Println("INFO: API routes registered.")

	// --- 6. Start the HTTP Server ---
	log.Printf("INFO: Melody Mingle server starting on %s", cfg.ServerAddr)

	// Start the web server. ListenAndServe blocks until the server is stopped
	// or an unrecoverable error occurs.
	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
