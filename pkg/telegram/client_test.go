package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpdatesDecodesMessagesAndCallbacks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/bottoken/getUpdates")

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(7), payload["offset"])
		assert.Equal(t, float64(30), payload["timeout"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{
					"update_id": 8,
					"message": map[string]any{
						"message_id": 1,
						"from":       map[string]any{"id": 100},
						"chat":       map[string]any{"id": 42},
						"text":       "hello",
					},
				},
				{
					"update_id": 9,
					"callback_query": map[string]any{
						"id":   "cb1",
						"from": map[string]any{"id": 100},
						"data": "approve:ap-1",
					},
				},
			},
		})
	}))
	defer srv.Close()

	updates, err := NewClientWithBaseURL("token", srv.URL).GetUpdates(context.Background(), 7, 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)

	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "hello", updates[0].Message.Text)
	assert.Equal(t, int64(100), updates[0].Message.From.ID)

	require.NotNil(t, updates[1].CallbackQuery)
	assert.Equal(t, "approve:ap-1", updates[1].CallbackQuery.Data)
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})
	}))
	defer srv.Close()

	err := NewClientWithBaseURL("token", srv.URL).SendMessage(context.Background(), 42, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}
