package api

import (
	"bytes"
	"database/sql"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAllUsersMergesSpotifyInfo(t *testing.T) {
	app := newTestApp(t)
	app.registerUser(t, "a@x.com", "alice", "secret-password")
	app.registerUser(t, "b@x.com", "bob", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	rec := app.do(t, http.MethodGet, "/users/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users []struct {
			Username        string      `json:"username"`
			SpotifyAuthInfo interface{} `json:"SpotifyAuthInfo"`
		} `json:"users"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Users, 2)
	// Nobody has linked Spotify, so the sub-object is null, not omitted.
	for _, user := range body.Users {
		require.Nil(t, user.SpotifyAuthInfo)
	}
}

func TestGetUserNotFound(t *testing.T) {
	app := newTestApp(t)
	app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	rec := app.do(t, http.MethodGet, "/users/no-such-id", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User not found", errorMessage(t, rec))
}

func TestUpdateUserReplacesProfile(t *testing.T) {
	app := newTestApp(t)
	userID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	rec := app.do(t, http.MethodPut, "/users/"+userID, token, map[string]interface{}{
		"eMail":            "a@x.com",
		"username":         "alice",
		"bio":              "hi there",
		"city":             "Berlin",
		"genrePreferences": []string{"Techno"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		User struct {
			Bio              *string  `json:"bio"`
			City             *string  `json:"city"`
			Gender           *string  `json:"gender"`
			GenrePreferences []string `json:"genrePreferences"`
		} `json:"user"`
	}
	decode(t, rec, &body)
	require.NotNil(t, body.User.Bio)
	require.Equal(t, "hi there", *body.User.Bio)
	require.Equal(t, "Berlin", *body.User.City)
	require.Equal(t, []string{"Techno"}, body.User.GenrePreferences)
	// Full-replacement semantics: the omitted gender is now null.
	require.Nil(t, body.User.Gender)
}

func TestUpdateUserCanRotatePassword(t *testing.T) {
	app := newTestApp(t)
	userID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	rec := app.do(t, http.MethodPut, "/users/"+userID, token, map[string]interface{}{
		"eMail":    "a@x.com",
		"username": "alice",
		"password": "brand-new-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Old password no longer works, new one does.
	rec = app.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"eMail":    "a@x.com",
		"password": "secret-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	app.loginUser(t, "a@x.com", "brand-new-password")
}

func TestDeleteUserReturnsNoContent(t *testing.T) {
	app := newTestApp(t)
	userID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	app.registerUser(t, "b@x.com", "bob", "secret-password")
	bobToken := app.loginUser(t, "b@x.com", "secret-password")

	rec := app.do(t, http.MethodDelete, "/users/"+userID, bobToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(t, http.MethodGet, "/users/"+userID, bobToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUserRemovesMembershipsParticipationsAndSpotifyLink(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	bobID := app.registerUser(t, "b@x.com", "bob", "secret-password")
	aliceToken := app.loginUser(t, "a@x.com", "secret-password")
	bobToken := app.loginUser(t, "b@x.com", "secret-password")

	groupID := app.createGroup(t, bobToken, bobID, "festival crew")
	rec := app.do(t, http.MethodPost, "/groups/inviteUsers", bobToken, map[string]string{
		"userId":  aliceID,
		"groupId": groupID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	eventID := app.createEvent(t, bobToken, bobID, false)
	rec = app.do(t, http.MethodPost, "/events/join/"+eventID, aliceToken, map[string]string{"userId": aliceID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	app.linkSpotify(t, aliceID, 1700000000)

	rec = app.do(t, http.MethodDelete, "/users/"+aliceID, bobToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The dependent rows went with the user. Alice was the only member, so
	// the member listing reports the group as empty.
	rec = app.do(t, http.MethodGet, "/groups/getUserFromGroup/"+groupID, bobToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Group not found", errorMessage(t, rec))

	require.Empty(t, app.eventParticipants(t, bobToken, eventID))

	_, err := app.db.GetSpotifyAuthInfoByUserID(app.db.DB(), aliceID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUploadProfilePicture(t *testing.T) {
	app := newTestApp(t)
	userID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	buildUpload := func(filename string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("profilePicture", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, writer.Close())
		return &buf, writer.FormDataContentType()
	}

	t.Run("unsupported extension", func(t *testing.T) {
		buf, contentType := buildUpload("picture.gif")
		req := httptest.NewRequest(http.MethodPost, "/users/upload/"+userID, buf)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("png upload stored under user id", func(t *testing.T) {
		buf, contentType := buildUpload("picture.png")
		req := httptest.NewRequest(http.MethodPost, "/users/upload/"+userID, buf)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		// The filename lands on the profile.
		getRec := app.do(t, http.MethodGet, "/users/"+userID, token, nil)
		require.Equal(t, http.StatusOK, getRec.Code)
		var body struct {
			User struct {
				Image *string `json:"image"`
			} `json:"user"`
		}
		decode(t, getRec, &body)
		require.NotNil(t, body.User.Image)
		require.Equal(t, fmt.Sprintf("%s.png", userID), *body.User.Image)
	})
}
