package database

import (
	"database/sql"
	"time"
)

// User represents a record in the 'users' table.
// `sql.NullString` is used for profile fields that can be NULL, such as the
// bio of a user who never filled one in.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"eMail"`
	Username         string         `json:"username"`
	Firstname        sql.NullString `json:"-"`
	Lastname         sql.NullString `json:"-"`
	DateOfBirth      string         `json:"dateOfBirth"`
	Bio              sql.NullString `json:"-"`
	Gender           sql.NullString `json:"-"`
	City             sql.NullString `json:"-"`
	State            sql.NullString `json:"-"`
	PasswordHash     string         `json:"-"` // Never serialized
	GenrePreferences []string       `json:"genrePreferences"`
	Image            sql.NullString `json:"-"`
	TopTrackID       sql.NullString `json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
}

// SpotifyAuthInfo holds the OAuth tokens for a user's linked Spotify account.
// ExpiresTimestamp is the absolute expiry as a unix timestamp in seconds,
// computed when the row is written.
type SpotifyAuthInfo struct {
	UserID           string `json:"userId"`
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	ExpiresIn        int64  `json:"expires_in"`
	ExpiresTimestamp int64  `json:"expires_timestamp"`
	RefreshToken     string `json:"refresh_token"`
}

// Group represents a record in the 'groups' table. The creator is the sole
// authority signal for group administration.
type Group struct {
	ID        string         `json:"id"`
	Creator   sql.NullString `json:"creator"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
}

// GroupMember is a row in the many-to-many join between users and groups.
type GroupMember struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}

// Event represents a record in the 'events' table.
type Event struct {
	ID          string         `json:"id"`
	Creator     string         `json:"creator"`
	EventName   string         `json:"eventName"`
	EventType   string         `json:"eventType"` // Concert, Party or Festival
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	Location    sql.NullString `json:"-"`
	Description sql.NullString `json:"-"`
	IsPrivate   bool           `json:"isPrivate"`
}

// EventParticipant is a row in the many-to-many join between users and events.
// For private events the same row doubles as an invitation.
type EventParticipant struct {
	UserID  string `json:"userId"`
	EventID string `json:"eventId"`
}

// Match is a single directional swipe from UserA towards UserB.
// The pair (UserA, UserB) is the composite primary key.
type Match struct {
	UserA     string       `json:"userA"`
	UserB     string       `json:"userB"`
	Result    sql.NullBool `json:"-"`
	MatchDate time.Time    `json:"matchDate"`
}

// Message is a chat message addressed by its composed conversation id.
type Message struct {
	ID         string    `json:"id"`
	ComposedID string    `json:"composed_id"`
	Text       string    `json:"text"`
	SenderID   string    `json:"sender_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageWithSender is a message joined with its sender's public profile,
// as returned by the chat history queries.
type MessageWithSender struct {
	Message Message
	Sender  User
}
