package api

import (
	"database/sql"
	"time"

	"github.com/melodymingle/mingle/internal/database"
)

// UserResponse is the DTO for a user profile. It is carefully structured to
// only expose safe data: the password hash never leaves the server.
// Nullable columns become pointers so they serialize as `null` rather than "".
type UserResponse struct {
	ID               string    `json:"id"`
	Firstname        *string   `json:"firstname"`
	Lastname         *string   `json:"lastname"`
	Email            string    `json:"eMail"`
	DateOfBirth      string    `json:"dateOfBirth"`
	CreatedAt        time.Time `json:"created_at"`
	Username         string    `json:"username"`
	Bio              *string   `json:"bio"`
	Gender           *string   `json:"gender"`
	City             *string   `json:"city"`
	State            *string   `json:"state"`
	GenrePreferences []string  `json:"genrePreferences"`
	Image            *string   `json:"image"`
	TopTrackID       *string   `json:"topTrackID"`

	// SpotifyAuthInfo is the flattened view of the user's optional Spotify
	// link. It is null when the account is not linked; the row is never
	// omitted from listings for that reason.
	SpotifyAuthInfo *SpotifyAuthInfoResponse `json:"SpotifyAuthInfo"`
}

// SpotifyAuthInfoResponse is the DTO for a stored Spotify token set.
type SpotifyAuthInfoResponse struct {
	UserID           string `json:"userId"`
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	ExpiresIn        int64  `json:"expires_in"`
	ExpiresTimestamp int64  `json:"expires_timestamp"`
	RefreshToken     string `json:"refresh_token"`
}

// nullable converts a sql.NullString to a *string for JSON serialization.
func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// toUserResponse converts the internal database model into the public-facing
// DTO, merging in the optional Spotify sub-record.
func toUserResponse(user *database.User, info *database.SpotifyAuthInfo) UserResponse {
	resp := UserResponse{
		ID:               user.ID,
		Firstname:        nullable(user.Firstname),
		Lastname:         nullable(user.Lastname),
		Email:            user.Email,
		DateOfBirth:      user.DateOfBirth,
		CreatedAt:        user.CreatedAt,
		Username:         user.Username,
		Bio:              nullable(user.Bio),
		Gender:           nullable(user.Gender),
		City:             nullable(user.City),
		State:            nullable(user.State),
		GenrePreferences: user.GenrePreferences,
		Image:            nullable(user.Image),
		TopTrackID:       nullable(user.TopTrackID),
	}
	if info != nil {
		resp.SpotifyAuthInfo = &SpotifyAuthInfoResponse{
			UserID:           info.UserID,
			AccessToken:      info.AccessToken,
			TokenType:        info.TokenType,
			Scope:            info.Scope,
			ExpiresIn:        info.ExpiresIn,
			ExpiresTimestamp: info.ExpiresTimestamp,
			RefreshToken:     info.RefreshToken,
		}
	}
	return resp
}

// GroupResponse is the DTO for a group.
type GroupResponse struct {
	ID        string    `json:"id"`
	Creator   *string   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
}

func toGroupResponse(group *database.Group) GroupResponse {
	return GroupResponse{
		ID:        group.ID,
		Creator:   nullable(group.Creator),
		CreatedAt: group.CreatedAt,
		Name:      group.Name,
	}
}

func toGroupResponseList(groups []*database.Group) []GroupResponse {
	responseList := make([]GroupResponse, len(groups))
	for i, group := range groups {
		responseList[i] = toGroupResponse(group)
	}
	return responseList
}

// EventResponse is the DTO for an event. Nullable descriptive fields are
// pointers so they serialize as `null`.
type EventResponse struct {
	ID          string    `json:"id"`
	Creator     string    `json:"creator"`
	EventName   string    `json:"eventName"`
	EventType   string    `json:"eventType"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	IsPrivate   bool      `json:"isPrivate"`
}

func toEventResponse(event *database.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		Creator:     event.Creator,
		EventName:   event.EventName,
		EventType:   event.EventType,
		StartDate:   event.StartDate,
		EndDate:     event.EndDate,
		Location:    nullable(event.Location),
		Description: nullable(event.Description),
		IsPrivate:   event.IsPrivate,
	}
}

func toEventResponseList(events []*database.Event) []EventResponse {
	responseList := make([]EventResponse, len(events))
	for i, event := range events {
		responseList[i] = toEventResponse(event)
	}
	return responseList
}

// MatchResponse is the DTO for a directional match row.
type MatchResponse struct {
	UserA     string    `json:"userA"`
	UserB     string    `json:"userB"`
	MatchDate time.Time `json:"matchDate"`
}

func toMatchResponse(match *database.Match) MatchResponse {
	return MatchResponse{
		UserA:     match.UserA,
		UserB:     match.UserB,
		MatchDate: match.MatchDate,
	}
}

func toMatchResponseList(matches []*database.Match) []MatchResponse {
	responseList := make([]MatchResponse, len(matches))
	for i, match := range matches {
		responseList[i] = toMatchResponse(match)
	}
	return responseList
}

// MessageSender is the slice of the sender profile that chat consumers need.
type MessageSender struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Image    *string `json:"image"`
}

// MessageResponse is the DTO for a chat message joined with its sender.
type MessageResponse struct {
	ID         string        `json:"id"`
	ComposedID string        `json:"composed_id"`
	Text       string        `json:"text"`
	SenderID   string        `json:"sender_id"`
	CreatedAt  time.Time     `json:"created_at"`
	Sender     MessageSender `json:"sender"`
}

func toMessageResponse(m *database.MessageWithSender) MessageResponse {
	return MessageResponse{
		ID:         m.Message.ID,
		ComposedID: m.Message.ComposedID,
		Text:       m.Message.Text,
		SenderID:   m.Message.SenderID,
		CreatedAt:  m.Message.CreatedAt,
		Sender: MessageSender{
			ID:       m.Sender.ID,
			Username: m.Sender.Username,
			Image:    nullable(m.Sender.Image),
		},
	}
}

func toMessageResponseList(messages []database.MessageWithSender) []MessageResponse {
	responseList := make([]MessageResponse, len(messages))
	for i := range messages {
		responseList[i] = toMessageResponse(&messages[i])
	}
	return responseList
}
