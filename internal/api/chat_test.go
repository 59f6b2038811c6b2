package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/melodymingle/mingle/internal/realtime"
	"github.com/stretchr/testify/require"
)

type chatHistoryBody struct {
	Messages []struct {
		Text     string `json:"text"`
		SenderID string `json:"sender_id"`
		Sender   struct {
			Username string `json:"username"`
		} `json:"sender"`
	} `json:"messages"`
}

func TestDirectChatHistoryIsOrderIndependent(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	bobID := app.registerUser(t, "b@x.com", "bob", "secret-password")
	aliceToken := app.loginUser(t, "a@x.com", "secret-password")
	bobToken := app.loginUser(t, "b@x.com", "secret-password")

	rec := app.do(t, http.MethodPost, "/chat/message", aliceToken, map[string]string{
		"sender_id":   aliceID,
		"receiver_id": bobID,
		"text":        "hi bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/chat/message", bobToken, map[string]string{
		"sender_id":   bobID,
		"receiver_id": aliceID,
		"text":        "hi alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Both path orders resolve to the same conversation.
	var fromAlice, fromBob chatHistoryBody

	rec = app.do(t, http.MethodGet, "/chat/message/"+aliceID+"/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &fromAlice)

	rec = app.do(t, http.MethodGet, "/chat/message/"+bobID+"/"+aliceID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &fromBob)

	require.Len(t, fromAlice.Messages, 2)
	require.Equal(t, fromAlice, fromBob)

	// Each message comes joined with its sender's profile.
	senders := map[string]string{}
	for _, m := range fromAlice.Messages {
		senders[m.Text] = m.Sender.Username
	}
	require.Equal(t, "alice", senders["hi bob"])
	require.Equal(t, "bob", senders["hi alice"])
}

func TestDirectMessageNotifiesReceiver(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	bobID := app.registerUser(t, "b@x.com", "bob", "secret-password")
	aliceToken := app.loginUser(t, "a@x.com", "secret-password")

	bobChan := app.server.broker.AddClient(bobID)
	defer app.server.broker.RemoveClient(bobID)

	rec := app.do(t, http.MethodPost, "/chat/message", aliceToken, map[string]string{
		"sender_id":   aliceID,
		"receiver_id": bobID,
		"text":        "hi bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var msg realtime.Message
	require.NoError(t, json.Unmarshal(<-bobChan, &msg))
	require.Equal(t, "new_message", msg.Type)
}

func TestGroupChatUsesGroupIDAsConversation(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")
	groupID := app.createGroup(t, token, aliceID, "festival crew")

	rec := app.do(t, http.MethodPost, "/chat/groupMessage", token, map[string]string{
		"composed_id": groupID,
		"text":        "who's going?",
		"sender_id":   aliceID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/chat/groupMessage/"+aliceID+"/"+groupID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body chatHistoryBody
	decode(t, rec, &body)
	require.Len(t, body.Messages, 1)
	require.Equal(t, "who's going?", body.Messages[0].Text)
	require.Equal(t, aliceID, body.Messages[0].SenderID)
}

func TestSendMessageValidatesPayload(t *testing.T) {
	app := newTestApp(t)
	aliceID := app.registerUser(t, "a@x.com", "alice", "secret-password")
	token := app.loginUser(t, "a@x.com", "secret-password")

	rec := app.do(t, http.MethodPost, "/chat/message", token, map[string]string{
		"sender_id": aliceID,
		"text":      "missing receiver",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
