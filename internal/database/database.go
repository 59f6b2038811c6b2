package database

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite" // The pure Go SQLite driver
)

// Service is the central struct for managing all database interactions.
// It holds the connection to the application database and serializes write
// operations via a mutex so concurrent handlers never interleave transactions.
type Service struct {
	dbPath  string
	db      *sql.DB
	writeMu sync.Mutex
}

// NewService creates and initializes a new database service.
// It opens the database connection and pings it to make sure it is alive.
func NewService(dbPath string) (*Service, error) {
	// SQLite leaves foreign keys off by default and the schema's cascades
	// depend on them. The modernc driver takes pragmas as `_pragma=name(value)`
	// query parameters, which it applies to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", dbPath, err)
	}

	return &Service{
		dbPath: dbPath,
		db:     db,
	}, nil
}

// Write executes a write operation (INSERT, UPDATE, DELETE) on the database
// within a transaction, protected by a mutex to ensure serial access.
func (s *Service) Write(writeFunc func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Execute the provided function. If it returns an error, roll back.
	if err := writeFunc(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// DB provides a direct connection for read queries.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Close closes the database connection when the application shuts down.
func (s *Service) Close() {
	s.db.Close()
	log.Println("Database connection closed.")
}

// Init sets up the schema if the tables don't exist.
// This is idempotent and safe to run on every application start.
func (s *Service) Init() error {
	return s.Write(func(tx *sql.Tx) error {
		statements := []string{
			// Users. Email is unique at the database level; usernames are only
			// checked at registration time, matching the original behavior.
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				username TEXT NOT NULL,
				firstname TEXT,
				lastname TEXT,
				date_of_birth TEXT NOT NULL,
				bio TEXT,
				gender TEXT,
				city TEXT,
				state TEXT,
				password_hash TEXT NOT NULL,
				genre_preferences TEXT,
				image TEXT,
				top_track_id TEXT,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`,

			// Spotify OAuth tokens. One row per user by convention, not by
			// constraint. Expiry is an absolute unix timestamp in seconds.
			`CREATE TABLE IF NOT EXISTS spotify_auth_info (
				user_id TEXT NOT NULL,
				access_token TEXT NOT NULL,
				token_type TEXT NOT NULL,
				scope TEXT NOT NULL,
				expires_in INTEGER NOT NULL,
				expires_timestamp INTEGER NOT NULL,
				refresh_token TEXT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
			);`,

			`CREATE TABLE IF NOT EXISTS groups (
				id TEXT PRIMARY KEY,
				creator TEXT,
				name TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (creator) REFERENCES users (id) ON DELETE SET NULL
			);`,

			// Many-to-many membership. The composite primary key prevents
			// duplicate membership rows.
			`CREATE TABLE IF NOT EXISTS group_members (
				user_id TEXT NOT NULL,
				group_id TEXT NOT NULL,
				PRIMARY KEY (user_id, group_id),
				FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
				FOREIGN KEY (group_id) REFERENCES groups (id) ON DELETE CASCADE
			);`,

			`CREATE TABLE IF NOT EXISTS events (
				id TEXT PRIMARY KEY,
				creator TEXT NOT NULL,
				event_name TEXT NOT NULL,
				event_type TEXT NOT NULL DEFAULT 'Party',
				start_date DATETIME NOT NULL,
				end_date DATETIME NOT NULL,
				location TEXT,
				description TEXT,
				is_private INTEGER NOT NULL DEFAULT 1,
				FOREIGN KEY (creator) REFERENCES users (id)
			);`,

			// A participant row doubles as an invitation for private events:
			// an invite is a pre-created participant record.
			`CREATE TABLE IF NOT EXISTS event_participants (
				user_id TEXT NOT NULL,
				event_id TEXT NOT NULL,
				PRIMARY KEY (user_id, event_id),
				FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
				FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE CASCADE
			);`,

			`CREATE TABLE IF NOT EXISTS songs (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				genre TEXT NOT NULL,
				artist TEXT
			);`,

			`CREATE TABLE IF NOT EXISTS favorite_songs (
				user_id TEXT NOT NULL,
				song_id TEXT NOT NULL,
				PRIMARY KEY (user_id, song_id),
				FOREIGN KEY (user_id) REFERENCES users (id),
				FOREIGN KEY (song_id) REFERENCES songs (id)
			);`,

			// Directional swipes. A mutual match is (A,B) and (B,A) both
			// existing; no undirected match entity is ever materialized.
			// No ON DELETE clause: user deletion cleans these up manually.
			`CREATE TABLE IF NOT EXISTS matches (
				user_a TEXT NOT NULL,
				user_b TEXT NOT NULL,
				result INTEGER,
				match_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (user_a, user_b),
				FOREIGN KEY (user_a) REFERENCES users (id),
				FOREIGN KEY (user_b) REFERENCES users (id)
			);`,

			// One table for direct and group chat. composed_id is the sorted,
			// comma-joined participant pair for direct chat, or the group id.
			`CREATE TABLE IF NOT EXISTS messages (
				id TEXT PRIMARY KEY,
				composed_id TEXT NOT NULL,
				text TEXT NOT NULL,
				sender_id TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (sender_id) REFERENCES users (id)
			);`,

			`CREATE INDEX IF NOT EXISTS idx_messages_composed_id ON messages (composed_id, created_at);`,
		}

		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
