// Package ticketing files support tickets when the chat hands a
// conversation off to a human.
package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helpdock/helpdock/internal/model"
	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
)

type Client struct {
	subdomain string
	email     string
	apiToken  string
	client    *http.Client
}

func New(subdomain, email, apiToken string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		subdomain: subdomain,
		email:     email,
		apiToken:  apiToken,
		client:    client,
	}
}

type createTicketRequest struct {
	Ticket struct {
		Subject string `json:"subject"`
		Comment struct {
			Body string `json:"body"`
		} `json:"comment"`
		Requester struct {
			Email string `json:"email,omitempty"`
		} `json:"requester"`
	} `json:"ticket"`
}

type createTicketResponse struct {
	Ticket struct {
		ID  int64  `json:"id"`
		URL string `json:"url"`
	} `json:"ticket"`
}

// CreateTicket opens a ticket carrying the customer's message verbatim.
func (c *Client) CreateTicket(ctx context.Context, subject, description, requesterEmail string) (*model.Ticket, error) {
	if c.subdomain == "" {
		return nil, apperrors.ErrUnavailable
	}
	var reqBody createTicketRequest
	reqBody.Ticket.Subject = subject
	reqBody.Ticket.Comment.Body = description
	reqBody.Ticket.Requester.Email = requesterEmail
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	base := c.subdomain
	if !strings.Contains(base, "://") {
		base = fmt.Sprintf("https://%s.zendesk.com", base)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v2/tickets.json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.email+"/token", c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: create ticket: %s: %s", apperrors.ErrFetch, resp.Status, strings.TrimSpace(string(body)))
	}
	var out createTicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFetch, err)
	}
	return &model.Ticket{ID: out.Ticket.ID, URL: out.Ticket.URL}, nil
}
