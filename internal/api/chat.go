package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/melodymingle/mingle/internal/database"
	"github.com/melodymingle/mingle/internal/realtime"

	"github.com/go-chi/chi/v5"
)

// directMessagePayload is a one-to-one chat message. The conversation id is
// derived from the two user ids, never supplied by the client.
type directMessagePayload struct {
	SenderID   string `json:"sender_id" validate:"required"`
	ReceiverID string `json:"receiver_id" validate:"required"`
	Text       string `json:"text" validate:"required"`
}

// groupMessagePayload is a group chat message. Here the conversation id IS
// client-supplied: it is the group's id.
type groupMessagePayload struct {
	ComposedID string `json:"composed_id" validate:"required"`
	Text       string `json:"text" validate:"required"`
	SenderID   string `json:"sender_id" validate:"required"`
}

// handleSendDirectMessage stores a one-to-one message and pushes a
// "new_message" notification to the receiver's SSE stream.
func (s *Server) handleSendDirectMessage(w http.ResponseWriter, r *http.Request) {
	var payload directMessagePayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	composedID := database.ComposeDirectChatID(payload.SenderID, payload.ReceiverID)

	var newMessage *database.Message
	err := s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newMessage, txErr = s.db.CreateMessage(tx, composedID, payload.Text, payload.SenderID)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not store message: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.broker.NotifyUser(payload.ReceiverID, realtime.Message{
		Type:    "new_message",
		Payload: newMessage,
	})

	s.writeJSON(w, http.StatusCreated, envelope{"message": newMessage})
}

// handleGetDirectMessages returns the full history of a one-to-one
// conversation, oldest first. The two path segments may appear in either
// order; the composed id is the same either way.
func (s *Server) handleGetDirectMessages(w http.ResponseWriter, r *http.Request) {
	senderID := chi.URLParam(r, "senderID")
	receiverID := chi.URLParam(r, "receiverID")

	composedID := database.ComposeDirectChatID(senderID, receiverID)

	messages, err := s.db.GetMessagesByComposedID(s.db.DB(), composedID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"messages": toMessageResponseList(messages)})
}

// handleSendGroupMessage stores a message in a group conversation.
func (s *Server) handleSendGroupMessage(w http.ResponseWriter, r *http.Request) {
	var payload groupMessagePayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	var newMessage *database.Message
	err := s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newMessage, txErr = s.db.CreateMessage(tx, payload.ComposedID, payload.Text, payload.SenderID)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not store group message: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusCreated, envelope{"message": newMessage})
}

// handleGetGroupMessages returns the full history of a group conversation,
// oldest first.
func (s *Server) handleGetGroupMessages(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	messages, err := s.db.GetMessagesByComposedID(s.db.DB(), groupID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"messages": toMessageResponseList(messages)})
}
