package database

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ComposeDirectChatID computes the conversation id for a direct chat: the two
// participant ids sorted and joined with a comma. Either participant can
// compute it without a lookup table, and the result is independent of who is
// "sender" and who is "receiver".
func ComposeDirectChatID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ",")
}

// CreateMessage inserts a chat message. For group chats the composed id is the
// group id itself; no separate conversation entity exists.
func (s *Service) CreateMessage(tx *sql.Tx, composedID, text, senderID string) (*Message, error) {
	id := uuid.NewString()
	query := `INSERT INTO messages (id, composed_id, text, sender_id) VALUES (?, ?, ?, ?);`
	if _, err := tx.Exec(query, id, composedID, text, senderID); err != nil {
		return nil, err
	}
	return s.GetMessageByID(tx, id)
}

func (s *Service) GetMessageByID(db DBorTx, id string) (*Message, error) {
	query := `SELECT id, composed_id, text, sender_id, created_at FROM messages WHERE id = ?;`
	msg := &Message{}
	err := db.QueryRow(query, id).Scan(&msg.ID, &msg.ComposedID, &msg.Text, &msg.SenderID, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetMessagesByComposedID returns the full history for a conversation in
// insertion-timestamp order, each message joined with its sender's profile.
// There is no pagination: every fetch returns everything.
func (s *Service) GetMessagesByComposedID(db DBorTx, composedID string) ([]MessageWithSender, error) {
	query := `
		SELECT m.id, m.composed_id, m.text, m.sender_id, m.created_at, ` + prefixedUserColumns("u") + `
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.composed_id = ?
		ORDER BY m.created_at ASC;`

	rows, err := db.Query(query, composedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []MessageWithSender{}
	for rows.Next() {
		var m MessageWithSender
		var genres sql.NullString
		err := rows.Scan(
			&m.Message.ID, &m.Message.ComposedID, &m.Message.Text, &m.Message.SenderID, &m.Message.CreatedAt,
			&m.Sender.ID, &m.Sender.Email, &m.Sender.Username, &m.Sender.Firstname, &m.Sender.Lastname,
			&m.Sender.DateOfBirth, &m.Sender.Bio, &m.Sender.Gender, &m.Sender.City, &m.Sender.State,
			&m.Sender.PasswordHash, &genres, &m.Sender.Image, &m.Sender.TopTrackID, &m.Sender.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
