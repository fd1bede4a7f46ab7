package model

import "time"

type ToolResultKind string

const (
	ToolResultOrder     ToolResultKind = "order"
	ToolResultTicket    ToolResultKind = "ticket"
	ToolResultKnowledge ToolResultKind = "knowledge"
	ToolResultText      ToolResultKind = "text"
)

// ToolResult is the chat reply. Consumers switch on Kind; exactly one of the
// payload fields is set for the non-text kinds.
type ToolResult struct {
	Kind    ToolResultKind `json:"kind"`
	Text    string         `json:"text"`
	Order   *Order         `json:"order,omitempty"`
	Ticket  *Ticket        `json:"ticket,omitempty"`
	Sources []Source       `json:"sources,omitempty"`
}

// Source points at the knowledge item a grounded answer was built from.
type Source struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// Order is the shape returned by the e-commerce order lookup.
type Order struct {
	Number            string    `json:"number"`
	Email             string    `json:"email"`
	FinancialStatus   string    `json:"financial_status"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	TotalPrice        string    `json:"total_price"`
	Currency          string    `json:"currency"`
	CreatedAt         time.Time `json:"created_at"`
	TrackingURL       string    `json:"tracking_url,omitempty"`
}

// Ticket is the shape returned by the ticketing integration.
type Ticket struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}
