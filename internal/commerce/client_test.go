package commerce

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
)

func TestFindOrder(t *testing.T) {
	var gotPath, gotToken, gotName, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotName = r.URL.Query().Get("name")
		gotEmail = r.URL.Query().Get("email")
		_, _ = io.WriteString(w, `{"orders":[{
			"name": "#10042",
			"email": "jo@example.com",
			"financial_status": "paid",
			"fulfillment_status": "fulfilled",
			"total_price": "49.00",
			"currency": "USD",
			"created_at": "2026-02-01T10:00:00Z",
			"fulfillments": [{"tracking_url": "https://track.example.com/abc"}]
		}]}`)
	}))
	defer server.Close()

	client := New(server.URL, "token-123", server.Client())
	order, err := client.FindOrder(context.Background(), "10042", "jo@example.com")
	require.NoError(t, err)

	require.Equal(t, "/admin/api/2024-01/orders.json", gotPath)
	require.Equal(t, "token-123", gotToken)
	require.Equal(t, "#10042", gotName)
	require.Equal(t, "jo@example.com", gotEmail)

	require.Equal(t, "10042", order.Number)
	require.Equal(t, "paid", order.FinancialStatus)
	require.Equal(t, "fulfilled", order.FulfillmentStatus)
	require.Equal(t, "49.00", order.TotalPrice)
	require.Equal(t, "https://track.example.com/abc", order.TrackingURL)
}

func TestFindOrderEmptyResultIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"orders":[]}`)
	}))
	defer server.Close()

	client := New(server.URL, "token-123", server.Client())
	_, err := client.FindOrder(context.Background(), "99999", "jo@example.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindOrderUpstreamErrorIsFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "token-123", server.Client())
	_, err := client.FindOrder(context.Background(), "10042", "jo@example.com")
	require.ErrorIs(t, err, apperrors.ErrFetch)
}

func TestFindOrderUnconfigured(t *testing.T) {
	client := New("", "", nil)
	_, err := client.FindOrder(context.Background(), "10042", "jo@example.com")
	require.ErrorIs(t, err, apperrors.ErrUnavailable)
}
