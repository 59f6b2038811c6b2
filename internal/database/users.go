package database

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// DBorTx is an interface that allows query functions to accept either a
// `*sql.DB` for single queries or a `*sql.Tx` for operations within a
// transaction. This promotes code reuse.
type DBorTx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

const userColumns = `id, email, username, firstname, lastname, date_of_birth, bio, gender, city, state, password_hash, genre_preferences, image, top_track_id, created_at`

// prefixedUserColumns qualifies the user column list with a table alias for
// use in JOIN queries.
func prefixedUserColumns(alias string) string {
	return alias + ".id, " + alias + ".email, " + alias + ".username, " +
		alias + ".firstname, " + alias + ".lastname, " + alias + ".date_of_birth, " +
		alias + ".bio, " + alias + ".gender, " + alias + ".city, " + alias + ".state, " +
		alias + ".password_hash, " + alias + ".genre_preferences, " + alias + ".image, " +
		alias + ".top_track_id, " + alias + ".created_at"
}

// encodeGenres marshals a genre list to the JSON text stored in the
// genre_preferences column. A nil slice becomes NULL.
func encodeGenres(genres []string) (interface{}, error) {
	if genres == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(genres)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// scanUser reads a full user row. It decodes the genre_preferences JSON text
// back into a string slice; NULL stays a nil slice.
func scanUser(row interface{ Scan(dest ...interface{}) error }) (*User, error) {
	user := &User{}
	var genres sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Firstname,
		&user.Lastname,
		&user.DateOfBirth,
		&user.Bio,
		&user.Gender,
		&user.City,
		&user.State,
		&user.PasswordHash,
		&genres,
		&user.Image,
		&user.TopTrackID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err // Returns sql.ErrNoRows if not found
	}
	if genres.Valid {
		if err := json.Unmarshal([]byte(genres.String), &user.GenrePreferences); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// CreateUser inserts a new user and returns the stored record. The caller is
// expected to have hashed the password and performed the duplicate pre-checks.
func (s *Service) CreateUser(db DBorTx, user *User) (*User, error) {
	user.ID = uuid.NewString()

	genres, err := encodeGenres(user.GenrePreferences)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO users (id, email, username, firstname, lastname, date_of_birth, bio, gender, city, state, password_hash, genre_preferences, image, top_track_id)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	_, err = db.Exec(query,
		user.ID, user.Email, user.Username, user.Firstname, user.Lastname,
		user.DateOfBirth, user.Bio, user.Gender, user.City, user.State,
		user.PasswordHash, genres, user.Image, user.TopTrackID,
	)
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(db, user.ID)
}

func (s *Service) GetUserByID(db DBorTx, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?;`
	return scanUser(db.QueryRow(query, id))
}

func (s *Service) GetUserByEmail(db DBorTx, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?;`
	return scanUser(db.QueryRow(query, email))
}

func (s *Service) GetUserByUsername(db DBorTx, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?;`
	return scanUser(db.QueryRow(query, username))
}

func (s *Service) GetAllUsers(db DBorTx) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at;`
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser performs a full replacement of the mutable profile fields.
// There are no partial-update semantics: fields the caller left unset are
// written back as NULL.
func (s *Service) UpdateUser(db DBorTx, user *User) (*User, error) {
	genres, err := encodeGenres(user.GenrePreferences)
	if err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET email = ?, username = ?, firstname = ?, lastname = ?, bio = ?, gender = ?, city = ?, state = ?, password_hash = ?, genre_preferences = ?, top_track_id = ?
			  WHERE id = ?;`
	_, err = db.Exec(query,
		user.Email, user.Username, user.Firstname, user.Lastname, user.Bio,
		user.Gender, user.City, user.State, user.PasswordHash, genres,
		user.TopTrackID, user.ID,
	)
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(db, user.ID)
}

// UpdateUserImage records the uploaded profile picture filename on the user row.
func (s *Service) UpdateUserImage(db DBorTx, userID, filename string) error {
	_, err := db.Exec(`UPDATE users SET image = ? WHERE id = ?;`, filename, userID)
	return err
}

// DeleteUser hard-deletes a user. Group memberships, event participations and
// Spotify tokens disappear through ON DELETE CASCADE; matches, messages and
// created events carry no cascade from the user row and are cleaned up
// manually inside the same transaction. Participants of the deleted events
// cascade away with them.
func (s *Service) DeleteUser(tx *sql.Tx, userID string) error {
	if _, err := tx.Exec(`DELETE FROM matches WHERE user_a = ? OR user_b = ?;`, userID, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM messages WHERE sender_id = ?;`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM events WHERE creator = ?;`, userID); err != nil {
		return err
	}
	_, err := tx.Exec(`DELETE FROM users WHERE id = ?;`, userID)
	return err
}
