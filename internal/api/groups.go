package api

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/melodymingle/mingle/internal/database"

	"github.com/go-chi/chi/v5"
)

// --- Structs for JSON Payloads ---

// createGroupPayload defines the expected JSON body for a group creation request.
type createGroupPayload struct {
	Creator string `json:"creator" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// updateGroupPayload defines the expected JSON body for a group update request.
type updateGroupPayload struct {
	Creator string `json:"creator" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// inviteUserPayload defines the expected JSON body for a group invitation.
// Joining a group and being invited to it are the same operation: a
// membership row appears either way.
type inviteUserPayload struct {
	UserID  string `json:"userId" validate:"required"`
	GroupID string `json:"groupId" validate:"required"`
}

// --- HTTP Handlers ---

// handleGetAllGroups returns every group in the system.
func (s *Server) handleGetAllGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.db.GetAllGroups(s.db.DB())
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if len(groups) == 0 {
		s.errorJSON(w, errors.New("Groups not found"), http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"groups": toGroupResponseList(groups)})
}

// handleCreateGroup creates a new group. The creator does not automatically
// become a member; membership is always an explicit inviteUsers call.
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var payload createGroupPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	var newGroup *database.Group
	err := s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		newGroup, txErr = s.db.CreateGroup(tx, payload.Creator, payload.Name)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not create group: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusCreated, envelope{"group": toGroupResponse(newGroup)})
}

// handleInviteUserToGroup adds a user to a group. Duplicate membership is
// rejected up front with a distinguishable message.
func (s *Server) handleInviteUserToGroup(w http.ResponseWriter, r *http.Request) {
	var payload inviteUserPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	isMember, err := s.db.IsUserGroupMember(s.db.DB(), payload.GroupID, payload.UserID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if isMember {
		s.errorJSON(w, errors.New("User is already a member of the group"), http.StatusBadRequest)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.AddGroupMember(tx, payload.GroupID, payload.UserID)
	})
	if err != nil {
		log.Printf("ERROR: could not add group member: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	member := database.GroupMember{UserID: payload.UserID, GroupID: payload.GroupID}
	s.writeJSON(w, http.StatusCreated, envelope{"member": member})
}

// handleGetGroupsByCreator returns the groups a user created.
func (s *Server) handleGetGroupsByCreator(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	groups, err := s.db.GetGroupsByCreator(s.db.DB(), userID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if len(groups) == 0 {
		s.errorJSON(w, errors.New("Group not found"), http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"groups": toGroupResponseList(groups)})
}

// handleGetGroupsOfUser returns the groups a user is a member of.
func (s *Server) handleGetGroupsOfUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	groups, err := s.db.GetGroupsOfUser(s.db.DB(), userID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if len(groups) == 0 {
		s.errorJSON(w, errors.New("Group not found"), http.StatusNotFound)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"groups": toGroupResponseList(groups)})
}

// handleGetGroupMembers returns the member profiles of a group.
func (s *Server) handleGetGroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	members, err := s.db.GetMembersOfGroup(s.db.DB(), groupID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if len(members) == 0 {
		s.errorJSON(w, errors.New("Group not found"), http.StatusNotFound)
		return
	}

	responseList := make([]UserResponse, len(members))
	for i, member := range members {
		responseList[i] = toUserResponse(member, nil)
	}

	s.writeJSON(w, http.StatusOK, envelope{"members": responseList})
}

// handleGetInvitableGroups returns the groups owned by one user that another
// user is NOT yet a member of. The invite picker on the frontend is populated
// from this list.
func (s *Server) handleGetInvitableGroups(w http.ResponseWriter, r *http.Request) {
	ownUserID := chi.URLParam(r, "ownUserID")
	userID := chi.URLParam(r, "userID")

	// 1. Both users must exist, with distinguishable messages.
	if _, err := s.db.GetUserByID(s.db.DB(), ownUserID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Owner of Group not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if _, err := s.db.GetUserByID(s.db.DB(), userID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	groups, err := s.db.GetOwnedGroupsWithoutMember(s.db.DB(), ownUserID, userID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// 2. An empty result is a 200 with an error-shaped body. The frontend
	// depends on this exact shape, so it stays.
	if len(groups) == 0 {
		s.writeJSON(w, http.StatusOK, envelope{"error": "Group not found"})
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"groups": toGroupResponseList(groups)})
}

// handleRemoveGroupMember removes a user from a group. Only the group's
// creator may do this.
func (s *Server) handleRemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	userID := chi.URLParam(r, "userID")

	group, err := s.db.GetGroupByID(s.db.DB(), groupID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Group not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	if _, err := s.db.GetUserByID(s.db.DB(), userID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// Only the creator administers membership.
	caller, err := s.getUserFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}
	if !group.Creator.Valid || group.Creator.String != caller.ID {
		s.errorJSON(w, errors.New("You are not the creator of the group"), http.StatusForbidden)
		return
	}

	isMember, err := s.db.IsUserGroupMember(s.db.DB(), groupID, userID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if !isMember {
		s.errorJSON(w, errors.New("User is not in the group"), http.StatusNotFound)
		return
	}

	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.RemoveGroupMember(tx, groupID, userID)
	})
	if err != nil {
		log.Printf("ERROR: could not remove group member: %v", err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetGroup returns a single group by id.
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	group, err := s.db.GetGroupByID(s.db.DB(), groupID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Group not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"group": toGroupResponse(group)})
}

// handleUpdateGroup replaces a group's name and creator.
func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	group, err := s.db.GetGroupByID(s.db.DB(), groupID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Group not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	var payload updateGroupPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	group.Creator = sql.NullString{String: payload.Creator, Valid: true}
	group.Name = payload.Name

	var updated *database.Group
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		updated, txErr = s.db.UpdateGroup(tx, group)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not update group %s: %v", groupID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"group": toGroupResponse(updated)})
}

// handleDeleteGroup deletes a group. Membership rows cascade.
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")

	if _, err := s.db.GetGroupByID(s.db.DB(), groupID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("Group not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteGroup(tx, groupID)
	})
	if err != nil {
		log.Printf("ERROR: could not delete group %s: %v", groupID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
