package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/melodymingle/mingle/internal/database"
	"github.com/melodymingle/mingle/internal/realtime"
)

// createMatchPayload is a single directional swipe: userA liked userB.
type createMatchPayload struct {
	UserA string `json:"userA" validate:"required"`
	UserB string `json:"userB" validate:"required"`
}

// handleCreateMatch records a directional match row. When the reverse row
// already exists the pair has become mutual and both users are notified over
// their SSE streams. Only the exact (A,B) row counts as a duplicate; (B,A) is
// the other user's swipe and is always allowed.
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var payload createMatchPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	// 1. Duplicate check on the exact direction.
	_, err := s.db.GetMatch(s.db.DB(), payload.UserA, payload.UserB)
	if err == nil {
		s.errorJSON(w, errors.New("Match already exists"), http.StatusConflict)
		return
	}
	if !isNoRows(err) {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// 2. Insert the new row.
	var newMatch *database.Match
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newMatch, txErr = s.db.CreateMatch(tx, payload.UserA, payload.UserB)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not create match: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// 3. If the reverse direction already existed, the match is mutual now.
	// Push a notification to both sides.
	if _, err := s.db.GetMatch(s.db.DB(), payload.UserB, payload.UserA); err == nil {
		notification := realtime.Message{
			Type: "new_match",
			Payload: map[string]string{
				"userA": payload.UserA,
				"userB": payload.UserB,
			},
		}
		s.broker.NotifyUser(payload.UserA, notification)
		s.broker.NotifyUser(payload.UserB, notification)
	}

	s.writeJSON(w, http.StatusCreated, envelope{"match": toMatchResponse(newMatch)})
}

// handleGetMutualMatch returns both directional rows of a pair, and a 404 when
// either direction is missing. Callers that need to distinguish the directions
// use checkMatch instead.
func (s *Server) handleGetMutualMatch(w http.ResponseWriter, r *http.Request) {
	userA := r.URL.Query().Get("userA")
	userB := r.URL.Query().Get("userB")

	aHasMatchedB, err := s.db.GetMatch(s.db.DB(), userA, userB)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Match not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	bHasMatchedA, err := s.db.GetMatch(s.db.DB(), userB, userA)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Match not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"AhasMatchedB": []MatchResponse{toMatchResponse(aHasMatchedB)},
		"BhasMatchedA": []MatchResponse{toMatchResponse(bHasMatchedA)},
	})
}

// handleDeleteMatch removes the single directional row (A,B). The reverse row
// is untouched; un-matching is per direction.
func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	userA := r.URL.Query().Get("userA")
	userB := r.URL.Query().Get("userB")

	if _, err := s.db.GetMatch(s.db.DB(), userA, userB); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Match not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteMatch(tx, userA, userB)
	})
	if err != nil {
		log.Printf("ERROR: could not delete match: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCheckMatch reports the state of both directions without ever erroring
// on absence: each side is an array that is empty or holds the one row. The
// swipe screen polls this to decide what to render.
func (s *Server) handleCheckMatch(w http.ResponseWriter, r *http.Request) {
	userA := r.URL.Query().Get("userA")
	userB := r.URL.Query().Get("userB")

	aHasMatchedB := []MatchResponse{}
	bHasMatchedA := []MatchResponse{}

	match, err := s.db.GetMatch(s.db.DB(), userA, userB)
	if err == nil {
		aHasMatchedB = append(aHasMatchedB, toMatchResponse(match))
	} else if !isNoRows(err) {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	match, err = s.db.GetMatch(s.db.DB(), userB, userA)
	if err == nil {
		bHasMatchedA = append(bHasMatchedA, toMatchResponse(match))
	} else if !isNoRows(err) {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"AhasMatchedB": aHasMatchedB,
		"BhasMatchedA": bHasMatchedA,
	})
}

// handleGetMatchesOfUser returns every directional row where the given user
// is the swiper. An empty list is a 200, not a 404.
func (s *Server) handleGetMatchesOfUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")

	matches, err := s.db.GetMatchesByUserA(s.db.DB(), userID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"matches": toMatchResponseList(matches)})
}
