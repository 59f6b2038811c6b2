package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/melodymingle/mingle/internal/database"

	"github.com/go-chi/chi/v5"
)

// --- Structs for JSON Payloads ---

// eventPayload defines the JSON body for event creation and updates.
type eventPayload struct {
	Creator     string    `json:"creator" validate:"required"`
	EventName   string    `json:"eventName" validate:"required"`
	EventType   string    `json:"eventType" validate:"required,oneof=Concert Party Festival"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	IsPrivate   bool      `json:"isPrivate"`
}

// joinEventPayload carries the user joining or leaving an event.
type joinEventPayload struct {
	UserID string `json:"userId" validate:"required"`
}

// inviteToEventPayload carries both sides of an event invitation: the inviter
// (who must be the creator) and the invitee.
type inviteToEventPayload struct {
	UserID        string `json:"userId" validate:"required"`
	InvitedUserID string `json:"invitedUserId" validate:"required"`
}

// --- HTTP Handlers ---

// handleGetPublicEvents returns all public events together with their
// participant rows, in separate arrays. The frontend joins them client-side.
func (s *Server) handleGetPublicEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.db.GetPublicEvents(s.db.DB())
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if len(events) == 0 {
		s.errorJSON(w, errors.New("No public events found"), http.StatusNotFound)
		return
	}

	eventIDs := make([]string, len(events))
	for i, event := range events {
		eventIDs[i] = event.ID
	}

	participants, err := s.db.GetParticipantsForEvents(s.db.DB(), eventIDs)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"events":       toEventResponseList(events),
		"participants": participants,
	})
}

// handleGetEventsOfUser returns the union of events a user created and events
// they participate in, de-duplicated by id.
func (s *Server) handleGetEventsOfUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.errorJSON(w, errors.New("Invalid user ID"), http.StatusBadRequest)
		return
	}

	createdEvents, err := s.db.GetEventsByCreator(s.db.DB(), userID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	participatedEvents, err := s.db.GetEventsByParticipant(s.db.DB(), userID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// Merge, created events first, skipping participated events the user also
	// created.
	seen := make(map[string]bool, len(createdEvents))
	allEvents := make([]*database.Event, 0, len(createdEvents)+len(participatedEvents))
	for _, event := range createdEvents {
		seen[event.ID] = true
		allEvents = append(allEvents, event)
	}
	for _, event := range participatedEvents {
		if !seen[event.ID] {
			allEvents = append(allEvents, event)
		}
	}

	if len(allEvents) == 0 {
		s.errorJSON(w, errors.New("Events not found"), http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"events": toEventResponseList(allEvents)})
}

// handleCreateEvent creates a new event.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	event := &database.Event{
		Creator:     payload.Creator,
		EventName:   payload.EventName,
		EventType:   payload.EventType,
		StartDate:   payload.StartDate,
		EndDate:     payload.EndDate,
		Location:    toNullString(payload.Location),
		Description: toNullString(payload.Description),
		IsPrivate:   payload.IsPrivate,
	}

	var newEvent *database.Event
	err := s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newEvent, txErr = s.db.CreateEvent(tx, event)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not create event: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusCreated, envelope{"event": toEventResponse(newEvent)})
}

// handleJoinEvent adds a user to an event. For private events the participant
// row created by an invitation doubles as the entry ticket: joining without
// one is forbidden, joining with one is a no-op success.
func (s *Server) handleJoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var payload joinEventPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	// 1. The event must exist.
	event, err := s.db.GetEventByID(s.db.DB(), eventID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Event not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// 2. A private event requires a pre-existing participant row (the
	// invitation) before the user may join.
	isParticipant, err := s.db.IsEventParticipant(s.db.DB(), eventID, payload.UserID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	if event.IsPrivate && !isParticipant {
		s.errorJSON(w, errors.New("You need an invitation to join this private event"), http.StatusForbidden)
		return
	}

	// 3. Joining twice is not an error.
	if isParticipant {
		s.writeJSON(w, http.StatusOK, envelope{"message": "Already joined the event"})
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.AddEventParticipant(tx, eventID, payload.UserID)
	})
	if err != nil {
		log.Printf("ERROR: could not join event %s: %v", eventID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "Successfully joined the event"})
}

// handleInviteToEvent lets an event's creator invite another user. The
// invitation is a participant row; an email notification is sent best-effort.
func (s *Server) handleInviteToEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var payload inviteToEventPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	event, err := s.db.GetEventByID(s.db.DB(), eventID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Event not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// Only the creator may invite.
	if event.Creator != payload.UserID {
		s.errorJSON(w, errors.New("You are not the creator of the event"), http.StatusForbidden)
		return
	}

	// Inviting twice is not an error.
	isParticipant, err := s.db.IsEventParticipant(s.db.DB(), eventID, payload.InvitedUserID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if isParticipant {
		s.writeJSON(w, http.StatusOK, envelope{"message": "User already invited to the event"})
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.AddEventParticipant(tx, eventID, payload.InvitedUserID)
	})
	if err != nil {
		log.Printf("ERROR: could not invite user to event %s: %v", eventID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// Notify the invitee by email. A delivery failure does not fail the
	// invitation; the participant row is already committed.
	go s.sendEventInviteEmail(payload.UserID, payload.InvitedUserID, event.EventName)

	s.writeJSON(w, http.StatusOK, envelope{"message": "User successfully invited to the event"})
}

// sendEventInviteEmail looks up the two users and sends the invitation mail.
// Runs on its own goroutine; failures are logged and dropped.
func (s *Server) sendEventInviteEmail(inviterID, invitedUserID, eventName string) {
	inviter, err := s.db.GetUserByID(s.db.DB(), inviterID)
	if err != nil {
		log.Printf("WARN: could not load inviter %s for invite email: %v", inviterID, err)
		return
	}
	invited, err := s.db.GetUserByID(s.db.DB(), invitedUserID)
	if err != nil {
		log.Printf("WARN: could not load invitee %s for invite email: %v", invitedUserID, err)
		return
	}
	if err := s.email.SendEventInvitationEmail(invited.Email, inviter.Username, eventName, s.config.FrontendURL); err != nil {
		log.Printf("WARN: could not send invite email to %s: %v", invited.Email, err)
	}
}

// handleLeaveEvent removes a user from an event's participant list.
func (s *Server) handleLeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var payload joinEventPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	if _, err := s.db.GetEventByID(s.db.DB(), eventID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Event not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	isParticipant, err := s.db.IsEventParticipant(s.db.DB(), eventID, payload.UserID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if !isParticipant {
		s.errorJSON(w, errors.New("You are not a participant of this event"), http.StatusNotFound)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.RemoveEventParticipant(tx, eventID, payload.UserID)
	})
	if err != nil {
		log.Printf("ERROR: could not leave event %s: %v", eventID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"message": "You have successfully left the event"})
}

// handleGetEvent returns a single event together with its participant rows.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := s.db.GetEventByID(s.db.DB(), eventID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Event not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	participants, err := s.db.GetParticipantsByEventID(s.db.DB(), eventID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"event":        toEventResponse(event),
		"participants": participants,
	})
}

// handleUpdateEvent replaces an event's fields.
func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := s.db.GetEventByID(s.db.DB(), eventID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Event not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	var payload eventPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	event.Creator = payload.Creator
	event.EventName = payload.EventName
	event.EventType = payload.EventType
	event.StartDate = payload.StartDate
	event.EndDate = payload.EndDate
	event.Location = toNullString(payload.Location)
	event.Description = toNullString(payload.Description)
	event.IsPrivate = payload.IsPrivate

	var updated *database.Event
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		updated, txErr = s.db.UpdateEvent(tx, event)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not update event %s: %v", eventID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"event": toEventResponse(updated)})
}

// handleDeleteEvent deletes an event and its participant rows in one
// transaction, so a crash cannot leave orphaned participants behind.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if _, err := s.db.GetEventByID(s.db.DB(), eventID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Event not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteEvent(tx, eventID)
	})
	if err != nil {
		log.Printf("ERROR: could not delete event %s: %v", eventID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
