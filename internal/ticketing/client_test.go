package ticketing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
)

func TestCreateTicket(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"ticket":{"id": 77, "url": "https://acme.zendesk.com/api/v2/tickets/77.json"}}`)
	}))
	defer server.Close()

	client := New(server.URL, "ops@acme.com", "api-token", server.Client())
	ticket, err := client.CreateTicket(context.Background(), "Support request from chat", "I need help with my return", "jo@example.com")
	require.NoError(t, err)

	require.Equal(t, "/api/v2/tickets.json", gotPath)
	require.Equal(t, "ops@acme.com/token", gotUser)
	require.Equal(t, "api-token", gotPass)

	payload := gotBody["ticket"].(map[string]interface{})
	require.Equal(t, "Support request from chat", payload["subject"])
	require.Equal(t, "I need help with my return", payload["comment"].(map[string]interface{})["body"])
	require.Equal(t, "jo@example.com", payload["requester"].(map[string]interface{})["email"])

	require.EqualValues(t, 77, ticket.ID)
	require.NotEmpty(t, ticket.URL)
}

func TestCreateTicketUpstreamErrorIsFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unprocessable", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := New(server.URL, "ops@acme.com", "api-token", server.Client())
	_, err := client.CreateTicket(context.Background(), "subject", "body", "jo@example.com")
	require.ErrorIs(t, err, apperrors.ErrFetch)
}

func TestCreateTicketUnconfigured(t *testing.T) {
	client := New("", "", "", nil)
	_, err := client.CreateTicket(context.Background(), "subject", "body", "jo@example.com")
	require.ErrorIs(t, err, apperrors.ErrUnavailable)
}
