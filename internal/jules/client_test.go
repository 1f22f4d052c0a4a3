package jules

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient("test-key", WithBaseURL(srv.URL), WithTimeout(time.Second))
	return client, srv
}

func TestRequestSetsAPIKeyHeader(t *testing.T) {
	var gotKey string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Goog-Api-Key")
		json.NewEncoder(w).Encode(map[string]any{"sessions": []Session{}})
	})
	defer srv.Close()

	_, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
}

func TestMissingAPIKeyFailsBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	_, err := client.ListSessions(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, julesErrors.ErrConfiguration))
	assert.False(t, called)
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "permission denied"},
		})
	})
	defer srv.Close()

	_, err := client.GetSession(context.Background(), "s-1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "permission denied", apiErr.Message)
	assert.True(t, errors.Is(err, julesErrors.ErrProvider))
}

func TestTransportErrorIsTransient(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {})
	srv.Close() // refuse connections

	_, err := client.ListSessions(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, julesErrors.ErrTransient))
}

func TestListSessionsNormalizesStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sessions": []map[string]any{
				{"id": "s-1", "rawStatus": "AWAITING_PLAN_APPROVAL"},
				{"id": "s-2", "rawStatus": "COMPLETED"},
				{"id": "s-3", "rawStatus": "IN_PROGRESS"},
			},
		})
	})
	defer srv.Close()

	sessions, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.Equal(t, StatusAwaitingApproval, sessions[0].Status)
	assert.Equal(t, StatusCompleted, sessions[1].Status)
	assert.Equal(t, StatusActive, sessions[2].Status)
	assert.True(t, sessions[2].InProgress())
}

func TestResumeAndApproveEndpoints(t *testing.T) {
	var paths []string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	require.NoError(t, client.ResumeSession(context.Background(), "s-1"))
	require.NoError(t, client.ApprovePlan(context.Background(), "s-1"))

	assert.Equal(t, []string{
		"POST /sessions/s-1:resume",
		"POST /sessions/s-1:approvePlan",
	}, paths)
}

func TestSendMessagePostsActivity(t *testing.T) {
	var got CreateActivityRequest
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Activity{ID: "a-1", SessionID: "s-1", Content: got.Content})
	})
	defer srv.Close()

	act, err := client.SendMessage(context.Background(), "s-1", "keep going")
	require.NoError(t, err)

	assert.Equal(t, "keep going", got.Content)
	assert.Equal(t, ActivityMessage, got.Type)
	assert.Equal(t, "a-1", act.ID)
}

func TestLastActivityPrefersActivityTime(t *testing.T) {
	update := time.Now().Add(-time.Hour)
	activity := time.Now().Add(-time.Minute)

	sess := Session{UpdateTime: update, LastActivityTime: &activity}
	assert.Equal(t, activity, sess.LastActivity())

	sess.LastActivityTime = nil
	assert.Equal(t, update, sess.LastActivity())
}
