package database

import (
	"database/sql"
)

// CreateSpotifyAuthInfo stores a freshly exchanged token set for a user.
// The one-row-per-user shape is a convention, not a constraint, so linking
// again simply replaces whatever rows exist.
func (s *Service) CreateSpotifyAuthInfo(tx *sql.Tx, info *SpotifyAuthInfo) error {
	if _, err := tx.Exec(`DELETE FROM spotify_auth_info WHERE user_id = ?;`, info.UserID); err != nil {
		return err
	}
	query := `INSERT INTO spotify_auth_info (user_id, access_token, token_type, scope, expires_in, expires_timestamp, refresh_token)
			  VALUES (?, ?, ?, ?, ?, ?, ?);`
	_, err := tx.Exec(query,
		info.UserID, info.AccessToken, info.TokenType, info.Scope,
		info.ExpiresIn, info.ExpiresTimestamp, info.RefreshToken,
	)
	return err
}

func (s *Service) GetSpotifyAuthInfoByUserID(db DBorTx, userID string) (*SpotifyAuthInfo, error) {
	query := `SELECT user_id, access_token, token_type, scope, expires_in, expires_timestamp, refresh_token
			  FROM spotify_auth_info WHERE user_id = ?;`
	info := &SpotifyAuthInfo{}
	err := db.QueryRow(query, userID).Scan(
		&info.UserID, &info.AccessToken, &info.TokenType, &info.Scope,
		&info.ExpiresIn, &info.ExpiresTimestamp, &info.RefreshToken,
	)
	if err != nil {
		return nil, err // Returns sql.ErrNoRows when the account is unlinked
	}
	return info, nil
}

// UpdateSpotifyTokens replaces the access token and expiry after a refresh.
// The refresh token is kept: Spotify does not rotate it on refresh.
func (s *Service) UpdateSpotifyTokens(tx *sql.Tx, userID, accessToken string, expiresTimestamp int64) error {
	query := `UPDATE spotify_auth_info SET access_token = ?, expires_timestamp = ? WHERE user_id = ?;`
	_, err := tx.Exec(query, accessToken, expiresTimestamp, userID)
	return err
}

// DeleteSpotifyAuthInfo unlinks a user's Spotify account.
func (s *Service) DeleteSpotifyAuthInfo(tx *sql.Tx, userID string) error {
	_, err := tx.Exec(`DELETE FROM spotify_auth_info WHERE user_id = ?;`, userID)
	return err
}
