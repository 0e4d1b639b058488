package rasa

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/8adimka/chat-gateway/internal/chat/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var gotPath, gotRequestID, gotContentType string
	var gotBody []byte

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		// Unknown fields on a fragment must be dropped by the decode.
		io.WriteString(w, `[{"text":"xin chào","recipient_id":"u1"},{"image":"https://example.com/a.png"},{"text":"chọn","buttons":[{"title":"Phở","payload":"/order"}]}]`)
	}))
	defer ts.Close()

	client := New(ts.URL, time.Second)
	replies, err := client.Send(context.Background(), "session-1", "hi", "req-1")
	require.NoError(t, err)

	assert.Equal(t, "/webhooks/rest/webhook", gotPath)
	assert.Equal(t, "req-1", gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"sender":"session-1","message":"hi"}`, string(gotBody))

	require.Len(t, replies, 3)
	assert.Equal(t, model.BotReply{Text: "xin chào"}, replies[0])
	assert.Equal(t, model.BotReply{Image: "https://example.com/a.png"}, replies[1])
	assert.Equal(t, model.BotReply{Text: "chọn", Buttons: []model.Button{{Title: "Phở", Payload: "/order"}}}, replies[2])
}

func TestClient_Send_EmptyReplySet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer ts.Close()

	client := New(ts.URL, time.Second)
	replies, err := client.Send(context.Background(), "s", "hi", "req")
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestClient_Send_UpstreamStatus(t *testing.T) {
	t.Run("JSON error body is carried as-is", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"reason":"no webhook"}`)
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		_, err := client.Send(context.Background(), "s", "hi", "req")

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.Code)
		assert.Equal(t, http.StatusNotFound, se.StatusCode())
		assert.JSONEq(t, `{"reason":"no webhook"}`, string(se.Body))
	})

	t.Run("non-JSON error body is wrapped as a JSON string", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, "upstream exploded")
		}))
		defer ts.Close()

		client := New(ts.URL, time.Second)
		_, err := client.Send(context.Background(), "s", "hi", "req")

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadGateway, se.Code)
		assert.True(t, json.Valid(se.Body), "body must stay valid JSON")
		assert.Equal(t, `"upstream exploded"`, string(se.Body))
	})
}

func TestClient_Send_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		io.WriteString(w, `[]`)
	}))
	defer ts.Close()

	client := New(ts.URL, 20*time.Millisecond)
	_, err := client.Send(context.Background(), "s", "hi", "req")

	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se), "a timeout carries no upstream status")
}

func TestClient_Send_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"not":"an array"}`)
	}))
	defer ts.Close()

	client := New(ts.URL, time.Second)
	_, err := client.Send(context.Background(), "s", "hi", "req")

	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se), "a malformed body is an internal fault, not an upstream status")
}
