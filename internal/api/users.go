package api

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/melodymingle/mingle/internal/auth"
	"github.com/melodymingle/mingle/internal/database"

	"github.com/go-chi/chi/v5"
)

// updateUserPayload defines the JSON body for a profile update. Every mutable
// field is present; an omitted field is a null write, matching the full
// replacement semantics the frontend relies on (it always sends the complete
// profile back).
type updateUserPayload struct {
	Firstname        *string  `json:"firstname"`
	Lastname         *string  `json:"lastname"`
	City             *string  `json:"city"`
	State            *string  `json:"state"`
	Email            string   `json:"eMail" validate:"required,email"`
	Gender           *string  `json:"gender"`
	Username         string   `json:"username" validate:"required"`
	Bio              *string  `json:"bio"`
	Password         *string  `json:"password" validate:"omitempty,min=6"`
	GenrePreferences []string `json:"genrePreferences"`
	TopTrackID       *string  `json:"topTrackID"`
}

// toNullString converts an optional payload field into its column value.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// spotifyInfoOrNil loads a user's Spotify link, treating "not linked" as nil
// rather than an error.
func (s *Server) spotifyInfoOrNil(userID string) (*database.SpotifyAuthInfo, error) {
	info, err := s.db.GetSpotifyAuthInfoByUserID(s.db.DB(), userID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// handleGetAllUsers returns every user, each merged with their Spotify link
// (or null when the account is not linked). The matching pool on the frontend
// is built from this list.
func (s *Server) handleGetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.GetAllUsers(s.db.DB())
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}
	if len(users) == 0 {
		s.errorJSON(w, errors.New("No users found"), http.StatusNotFound)
		return
	}

	responseList := make([]UserResponse, 0, len(users))
	for _, user := range users {
		info, err := s.spotifyInfoOrNil(user.ID)
		if err != nil {
			s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
			return
		}
		responseList = append(responseList, toUserResponse(user, info))
	}

	s.writeJSON(w, http.StatusOK, envelope{"users": responseList})
}

// handleGetUser returns a single user profile merged with their Spotify link.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := s.db.GetUserByID(s.db.DB(), userID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	info, err := s.spotifyInfoOrNil(user.ID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"user": toUserResponse(user, info)})
}

// handleUpdateUser replaces the mutable profile fields of a user.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	// 1. The target user must exist.
	user, err := s.db.GetUserByID(s.db.DB(), userID)
	if err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	var payload updateUserPayload
	if err := decodeAndValidate(r.Body, &payload); err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	// 2. Full replacement of the mutable fields. Fields not present in the
	// payload become null. The image filename and date of birth are managed
	// elsewhere and keep their stored values.
	user.Firstname = toNullString(payload.Firstname)
	user.Lastname = toNullString(payload.Lastname)
	user.City = toNullString(payload.City)
	user.State = toNullString(payload.State)
	user.Email = payload.Email
	user.Gender = toNullString(payload.Gender)
	user.Username = payload.Username
	user.Bio = toNullString(payload.Bio)
	user.GenrePreferences = payload.GenrePreferences
	user.TopTrackID = toNullString(payload.TopTrackID)

	// A new password is re-hashed; an absent one keeps the stored hash.
	if payload.Password != nil {
		hashedPassword, err := auth.HashPassword(*payload.Password)
		if err != nil {
			s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
			return
		}
		user.PasswordHash = hashedPassword
	}

	var updated *database.User
	err = s.db.Write(func(tx *sql.Tx) error {
		var txErr error
		updated, txErr = s.db.UpdateUser(tx, user)
		return txErr
	})
	if err != nil {
		log.Printf("ERROR: could not update user %s: %v", userID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	info, err := s.spotifyInfoOrNil(updated.ID)
	if err != nil {
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"user": toUserResponse(updated, info)})
}

// handleDeleteUser hard-deletes a user account. Group memberships and the
// Spotify link cascade; match and message rows are cleaned up manually inside
// the same transaction because those tables carry no cascade.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := s.db.GetUserByID(s.db.DB(), userID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	err := s.db.Write(func(tx *sql.Tx) error {
		return s.db.DeleteUser(tx, userID)
	})
	if err != nil {
		log.Printf("ERROR: could not delete user %s: %v", userID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleUploadProfilePicture accepts a multipart upload and stores it under
// the picture directory as <userID><ext>, so re-uploads replace the previous
// picture. The filename is recorded on the user row and the file is served
// statically at /profile_pictures/.
func (s *Server) handleUploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if _, err := s.db.GetUserByID(s.db.DB(), userID); err != nil {
		if isNoRows(err) {
			s.errorJSON(w, errors.New("User not found"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	// --- 1. Parse the Upload ---
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		s.errorJSON(w, errors.New("file is too large (max 10MB)"), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("profilePicture")
	if err != nil {
		s.errorJSON(w, errors.New("invalid file upload: 'profilePicture' field is missing"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		s.errorJSON(w, errors.New("image format not supported"), http.StatusBadRequest)
		return
	}

	// --- 2. Store the File ---
	newFileName := userID + ext
	newFilePath := filepath.Join(s.config.PicturePath, newFileName)

	dst, err := os.Create(newFilePath)
	if err != nil {
		s.errorJSON(w, errors.New("could not save file"), http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		s.errorJSON(w, errors.New("could not save file"), http.StatusInternalServerError)
		return
	}

	// --- 3. Record the filename on the user row ---
	err = s.db.Write(func(tx *sql.Tx) error {
		return s.db.UpdateUserImage(tx, userID, newFileName)
	})
	if err != nil {
		log.Printf("ERROR: could not record profile picture for user %s: %v", userID, err)
		s.errorJSON(w, errors.New("Service Unavailable"), http.StatusServiceUnavailable)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{
		"message": fmt.Sprintf("File uploaded successfully: %s for user %s", newFileName, userID),
	})
}
