package database

import (
	"database/sql"
)

// CreateMatch inserts a single directional match row. The caller is expected
// to have checked for an existing row in the exact same direction; the reverse
// direction is deliberately a separate row.
func (s *Service) CreateMatch(tx *sql.Tx, userA, userB string) (*Match, error) {
	query := `INSERT INTO matches (user_a, user_b) VALUES (?, ?);`
	if _, err := tx.Exec(query, userA, userB); err != nil {
		return nil, err
	}
	return s.GetMatch(tx, userA, userB)
}

// GetMatch looks up the directional row (userA, userB).
// Mutuality is never stored: callers that need it issue both lookups.
func (s *Service) GetMatch(db DBorTx, userA, userB string) (*Match, error) {
	query := `SELECT user_a, user_b, result, match_date FROM matches WHERE user_a = ? AND user_b = ?;`
	match := &Match{}
	err := db.QueryRow(query, userA, userB).Scan(&match.UserA, &match.UserB, &match.Result, &match.MatchDate)
	if err != nil {
		return nil, err
	}
	return match, nil
}

// GetMatchesByUserA returns every swipe the given user has made.
func (s *Service) GetMatchesByUserA(db DBorTx, userID string) ([]*Match, error) {
	query := `SELECT user_a, user_b, result, match_date FROM matches WHERE user_a = ? ORDER BY match_date DESC;`
	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		match := &Match{}
		if err := rows.Scan(&match.UserA, &match.UserB, &match.Result, &match.MatchDate); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// DeleteMatch removes the single directional row (userA, userB), undoing one
// swipe without touching the reverse direction.
func (s *Service) DeleteMatch(tx *sql.Tx, userA, userB string) error {
	query := `DELETE FROM matches WHERE user_a = ? AND user_b = ?;`
	_, err := tx.Exec(query, userA, userB)
	return err
}
