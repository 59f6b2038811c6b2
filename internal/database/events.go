package database

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

const eventColumns = `id, creator, event_name, event_type, start_date, end_date, location, description, is_private`

func scanEvent(row interface{ Scan(dest ...interface{}) error }) (*Event, error) {
	event := &Event{}
	err := row.Scan(
		&event.ID,
		&event.Creator,
		&event.EventName,
		&event.EventType,
		&event.StartDate,
		&event.EndDate,
		&event.Location,
		&event.Description,
		&event.IsPrivate,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) CreateEvent(tx *sql.Tx, event *Event) (*Event, error) {
	event.ID = uuid.NewString()
	query := `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`
	_, err := tx.Exec(query,
		event.ID, event.Creator, event.EventName, event.EventType,
		event.StartDate, event.EndDate, event.Location, event.Description,
		event.IsPrivate,
	)
	if err != nil {
		return nil, err
	}
	return s.GetEventByID(tx, event.ID)
}

func (s *Service) GetEventByID(db DBorTx, id string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?;`
	return scanEvent(db.QueryRow(query, id))
}

// GetPublicEvents returns every event whose visibility flag allows open join.
func (s *Service) GetPublicEvents(db DBorTx) ([]*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_private = 0 ORDER BY start_date;`
	return s.queryEvents(db, query)
}

func (s *Service) GetEventsByCreator(db DBorTx, creatorID string) ([]*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE creator = ? ORDER BY start_date;`
	return s.queryEvents(db, query, creatorID)
}

// GetEventsByParticipant returns the events the user holds a participant row
// for, whether that row means "invited" or "joined".
func (s *Service) GetEventsByParticipant(db DBorTx, userID string) ([]*Event, error) {
	query := `
		SELECT ` + prefixedEventColumns("e") + `
		FROM events e
		JOIN event_participants ep ON e.id = ep.event_id
		WHERE ep.user_id = ?
		ORDER BY e.start_date;`
	return s.queryEvents(db, query, userID)
}

func (s *Service) queryEvents(db DBorTx, query string, args ...interface{}) ([]*Event, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// UpdateEvent replaces all mutable event fields.
func (s *Service) UpdateEvent(tx *sql.Tx, event *Event) (*Event, error) {
	query := `UPDATE events
			  SET creator = ?, event_name = ?, event_type = ?, start_date = ?, end_date = ?, location = ?, description = ?, is_private = ?
			  WHERE id = ?;`
	_, err := tx.Exec(query,
		event.Creator, event.EventName, event.EventType, event.StartDate,
		event.EndDate, event.Location, event.Description, event.IsPrivate,
		event.ID,
	)
	if err != nil {
		return nil, err
	}
	return s.GetEventByID(tx, event.ID)
}

// DeleteEvent removes the event and all its participant rows. Both statements
// run on the same transaction so a crash cannot leave orphaned participants.
func (s *Service) DeleteEvent(tx *sql.Tx, eventID string) error {
	if _, err := tx.Exec(`DELETE FROM event_participants WHERE event_id = ?;`, eventID); err != nil {
		return err
	}
	_, err := tx.Exec(`DELETE FROM events WHERE id = ?;`, eventID)
	return err
}

// --- Participants ---

func (s *Service) AddEventParticipant(tx *sql.Tx, eventID, userID string) error {
	query := `INSERT INTO event_participants (user_id, event_id) VALUES (?, ?);`
	_, err := tx.Exec(query, userID, eventID)
	return err
}

func (s *Service) RemoveEventParticipant(tx *sql.Tx, eventID, userID string) error {
	query := `DELETE FROM event_participants WHERE user_id = ? AND event_id = ?;`
	_, err := tx.Exec(query, userID, eventID)
	return err
}

func (s *Service) IsEventParticipant(db DBorTx, eventID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM event_participants WHERE event_id = ? AND user_id = ?);`
	var exists bool
	err := db.QueryRow(query, eventID, userID).Scan(&exists)
	return exists, err
}

func (s *Service) GetParticipantsByEventID(db DBorTx, eventID string) ([]EventParticipant, error) {
	query := `SELECT user_id, event_id FROM event_participants WHERE event_id = ?;`
	return s.queryParticipants(db, query, eventID)
}

// GetParticipantsForEvents returns the participant rows for a set of events
// in a single query.
func (s *Service) GetParticipantsForEvents(db DBorTx, eventIDs []string) ([]EventParticipant, error) {
	if len(eventIDs) == 0 {
		return []EventParticipant{}, nil
	}

	args := make([]interface{}, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}

	query := `SELECT user_id, event_id FROM event_participants WHERE event_id IN (?` +
		strings.Repeat(",?", len(eventIDs)-1) + `);`
	return s.queryParticipants(db, query, args...)
}

func (s *Service) queryParticipants(db DBorTx, query string, args ...interface{}) ([]EventParticipant, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []EventParticipant{}
	for rows.Next() {
		var p EventParticipant
		if err := rows.Scan(&p.UserID, &p.EventID); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func prefixedEventColumns(alias string) string {
	return alias + ".id, " + alias + ".creator, " + alias + ".event_name, " +
		alias + ".event_type, " + alias + ".start_date, " + alias + ".end_date, " +
		alias + ".location, " + alias + ".description, " + alias + ".is_private"
}
