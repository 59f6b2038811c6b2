package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// createGroup creates a group via the API and returns its id.
func (app *testApp) createGroup(t *testing.T, token, creatorID, name string) string {
	t.Helper()

	rec := app.do(t, http.MethodPost, "/groups/", token, map[string]string{
		"creator": creatorID,
		"name":    name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Group struct {
			ID string `json:"id"`
		} `json:"group"`
	}
	decode(t, rec, &body)
	return body.Group.ID
}

func TestGroupInviteRejectsExistingMember(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	bobID := app.registerUser(t, "b@x.com", "bob", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")
	groupID := app.createGroup(t, token, aliceID, "festival crew")

	rec := app.do(t, http.MethodPost, "/groups/inviteUsers", token, map[string]string{
		"userId":  bobID,
		"groupId": groupID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Inviting the same user again is a 400 with a distinct message.
	rec = app.do(t, http.MethodPost, "/groups/inviteUsers", token, map[string]string{
		"userId":  bobID,
		"groupId": groupID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "User is already a member of the group", errorMessage(t, rec))
}

func TestInvitableGroupsQuirkReturns200WithErrorBody(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	bobID := app.registerUser(t, "b@x.com", "bob", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")
	groupID := app.createGroup(t, token, aliceID, "festival crew")

	// Bob is not a member yet: the group is invitable.
	rec := app.do(t, http.MethodGet, "/groups/getGroupAndCheckIfUserInGroup/"+aliceID+"/"+bobID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listBody struct {
		Groups []struct {
			ID string `json:"id"`
		} `json:"groups"`
	}
	decode(t, rec, &listBody)
	require.Len(t, listBody.Groups, 1)
	require.Equal(t, groupID, listBody.Groups[0].ID)

	// Add bob; no invitable groups remain, and the endpoint answers 200 with
	// an error-shaped body rather than a 404. The frontend depends on this.
	rec = app.do(t, http.MethodPost, "/groups/inviteUsers", token, map[string]string{
		"userId":  bobID,
		"groupId": groupID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.do(t, http.MethodGet, "/groups/getGroupAndCheckIfUserInGroup/"+aliceID+"/"+bobID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Group not found", errorMessage(t, rec))
}

func TestRemoveGroupMemberIsCreatorOnly(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	bobID := app.registerUser(t, "b@x.com", "bob", "secret-password")
	aliceToken := app.loginUser(t, "a@x.com", "secret-password")
	bobToken := app.loginUser(t, "b@x.com", "secret-password")
	groupID := app.createGroup(t, aliceToken, aliceID, "festival crew")

	rec := app.do(t, http.MethodPost, "/groups/inviteUsers", aliceToken, map[string]string{
		"userId":  bobID,
		"groupId": groupID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Bob cannot remove himself; only the creator administers membership.
	rec = app.do(t, http.MethodPut, "/groups/removeUserFromGroup/"+groupID+"/"+bobID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPut, "/groups/removeUserFromGroup/"+groupID+"/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Removing a non-member is a 404.
	rec = app.do(t, http.MethodPut, "/groups/removeUserFromGroup/"+groupID+"/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "User is not in the group", errorMessage(t, rec))
}

func TestGroupCRUD(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	// Listing with no groups yet is a 404, matching the original contract.
	rec := app.do(t, http.MethodGet, "/groups/", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	groupID := app.createGroup(t, token, aliceID, "festival crew")

	rec = app.do(t, http.MethodGet, "/groups/"+groupID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPut, "/groups/"+groupID, token, map[string]string{
		"creator": aliceID,
		"name":    "renamed crew",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Group struct {
			Name string `json:"name"`
		} `json:"group"`
	}
	decode(t, rec, &body)
	require.Equal(t, "renamed crew", body.Group.Name)

	rec = app.do(t, http.MethodDelete, "/groups/"+groupID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(t, http.MethodGet, "/groups/"+groupID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Group not found", errorMessage(t, rec))
}
