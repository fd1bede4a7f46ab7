// Package commerce wraps the e-commerce platform's admin API. The chat flow
// only needs one call: find a customer's order by number and email.
package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/helpdock/helpdock/internal/model"
	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
)

type Client struct {
	domain      string
	accessToken string
	client      *http.Client
}

func New(domain, accessToken string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		domain:      strings.TrimSuffix(domain, "/"),
		accessToken: accessToken,
		client:      client,
	}
}

type orderResponse struct {
	Orders []struct {
		Name              string `json:"name"`
		Email             string `json:"email"`
		FinancialStatus   string `json:"financial_status"`
		FulfillmentStatus string `json:"fulfillment_status"`
		TotalPrice        string `json:"total_price"`
		Currency          string `json:"currency"`
		CreatedAt         string `json:"created_at"`
		Fulfillments      []struct {
			TrackingURL string `json:"tracking_url"`
		} `json:"fulfillments"`
	} `json:"orders"`
}

// FindOrder looks an order up by its number and the customer email. Both
// must match; a missing order is ErrNotFound, not a dependency failure.
func (c *Client) FindOrder(ctx context.Context, number, email string) (*model.Order, error) {
	if c.domain == "" || c.accessToken == "" {
		return nil, apperrors.ErrUnavailable
	}
	params := url.Values{}
	params.Set("name", "#"+strings.TrimPrefix(number, "#"))
	params.Set("email", email)
	params.Set("status", "any")
	base := c.domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	endpoint := fmt.Sprintf("%s/admin/api/2024-01/orders.json?%s", base, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: order lookup: %s: %s", apperrors.ErrFetch, resp.Status, strings.TrimSpace(string(body)))
	}
	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFetch, err)
	}
	if len(out.Orders) == 0 {
		return nil, apperrors.ErrNotFound
	}
	raw := out.Orders[0]
	createdAt, _ := time.Parse(time.RFC3339, raw.CreatedAt)
	order := &model.Order{
		Number:            strings.TrimPrefix(raw.Name, "#"),
		Email:             raw.Email,
		FinancialStatus:   raw.FinancialStatus,
		FulfillmentStatus: raw.FulfillmentStatus,
		TotalPrice:        raw.TotalPrice,
		Currency:          raw.Currency,
		CreatedAt:         createdAt,
	}
	if len(raw.Fulfillments) > 0 {
		order.TrackingURL = raw.Fulfillments[0].TrackingURL
	}
	return order, nil
}
