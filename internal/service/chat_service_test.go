package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helpdock/helpdock/internal/model"
	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
	"github.com/helpdock/helpdock/internal/vectorstore"
)

type stubResponder struct {
	calls  int
	answer string
	blocks []string
}

func (r *stubResponder) Answer(ctx context.Context, question string, contextBlocks []string) (string, error) {
	r.calls++
	r.blocks = contextBlocks
	return r.answer, nil
}

type stubOrderFinder struct {
	calls    int
	number   string
	email    string
	order    *model.Order
	notFound bool
}

func (f *stubOrderFinder) FindOrder(ctx context.Context, number, email string) (*model.Order, error) {
	f.calls++
	f.number = number
	f.email = email
	if f.notFound {
		return nil, apperrors.ErrNotFound
	}
	return f.order, nil
}

type stubTicketCreator struct {
	calls   int
	subject string
	ticket  *model.Ticket
}

func (c *stubTicketCreator) CreateTicket(ctx context.Context, subject, description, requesterEmail string) (*model.Ticket, error) {
	c.calls++
	c.subject = subject
	return c.ticket, nil
}

func newTestChatService(responder *stubResponder, store vectorstore.Store, orders *stubOrderFinder, tickets *stubTicketCreator) *ChatService {
	var of OrderFinder
	if orders != nil {
		of = orders
	}
	var tc TicketCreator
	if tickets != nil {
		tc = tickets
	}
	return NewChatService(responder, &countingEmbedder{}, store, of, tc, ChatOptions{TopK: 4, Threshold: 0.5})
}

func TestChatRejectsEmptyAndOversizeMessages(t *testing.T) {
	svc := newTestChatService(&stubResponder{}, vectorstore.NewMemory(), nil, nil)

	_, err := svc.Answer(context.Background(), "   ", "")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	long := make([]byte, MaxMessageChars+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Answer(context.Background(), string(long), "")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestChatOrderLookupNeedsEmail(t *testing.T) {
	orders := &stubOrderFinder{}
	svc := newTestChatService(&stubResponder{}, vectorstore.NewMemory(), orders, nil)

	result, err := svc.Answer(context.Background(), "Where is my order #12345?", "")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultText, result.Kind)
	require.Contains(t, result.Text, "email")
	require.Zero(t, orders.calls)
}

func TestChatOrderLookupHappyPath(t *testing.T) {
	orders := &stubOrderFinder{order: &model.Order{
		Number:            "12345",
		Email:             "jo@example.com",
		FinancialStatus:   "paid",
		FulfillmentStatus: "shipped",
		TotalPrice:        "49.00",
		Currency:          "USD",
		CreatedAt:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	svc := newTestChatService(&stubResponder{}, vectorstore.NewMemory(), orders, nil)

	result, err := svc.Answer(context.Background(), "What's the status of order #12345?", "jo@example.com")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultOrder, result.Kind)
	require.NotNil(t, result.Order)
	require.Equal(t, "12345", orders.number)
	require.Equal(t, "jo@example.com", orders.email)
	require.Equal(t, 1, orders.calls)
}

func TestChatOrderNotFoundIsPoliteText(t *testing.T) {
	orders := &stubOrderFinder{notFound: true}
	svc := newTestChatService(&stubResponder{}, vectorstore.NewMemory(), orders, nil)

	result, err := svc.Answer(context.Background(), "order 99999 status please", "jo@example.com")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultText, result.Kind)
	require.Contains(t, result.Text, "99999")
}

func TestChatShortNumberDoesNotTriggerLookup(t *testing.T) {
	orders := &stubOrderFinder{}
	responder := &stubResponder{answer: "We ship in 2 days."}
	svc := newTestChatService(responder, vectorstore.NewMemory(), orders, nil)

	result, err := svc.Answer(context.Background(), "Can I order 2 items at once?", "jo@example.com")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultText, result.Kind)
	require.Zero(t, orders.calls)
	require.Equal(t, 1, responder.calls)
}

func TestChatHandoffOpensTicket(t *testing.T) {
	tickets := &stubTicketCreator{ticket: &model.Ticket{ID: 42, URL: "https://support.example.com/tickets/42"}}
	svc := newTestChatService(&stubResponder{}, vectorstore.NewMemory(), nil, tickets)

	result, err := svc.Answer(context.Background(), "I want to talk to a human please", "jo@example.com")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultTicket, result.Kind)
	require.NotNil(t, result.Ticket)
	require.EqualValues(t, 42, result.Ticket.ID)
	require.Contains(t, result.Text, "42")
	require.Equal(t, 1, tickets.calls)
}

func TestChatHandoffNeedsEmail(t *testing.T) {
	tickets := &stubTicketCreator{ticket: &model.Ticket{ID: 1}}
	svc := newTestChatService(&stubResponder{}, vectorstore.NewMemory(), nil, tickets)

	result, err := svc.Answer(context.Background(), "get me an agent", "")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultText, result.Kind)
	require.Zero(t, tickets.calls)
}

func TestChatKnowledgeAnswerWithSources(t *testing.T) {
	store := vectorstore.NewMemory()
	seedDocumentRecords(t, store, "kb1", "faq.md", 2)
	responder := &stubResponder{answer: "Refunds take 5 business days."}
	svc := newTestChatService(responder, store, nil, nil)

	// countingEmbedder returns a vector aligned with the seeded document
	// embeddings, so both chunks clear the threshold.
	result, err := svc.Answer(context.Background(), "x", "")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultKnowledge, result.Kind)
	require.Equal(t, "Refunds take 5 business days.", result.Text)
	require.Len(t, result.Sources, 1)
	require.Equal(t, "kb1", result.Sources[0].ID)
	require.Len(t, responder.blocks, 2)
}

func TestChatEmptyKnowledgeBaseFallsBackToText(t *testing.T) {
	responder := &stubResponder{answer: "I'm not sure, please contact support."}
	svc := newTestChatService(responder, vectorstore.NewMemory(), nil, nil)

	result, err := svc.Answer(context.Background(), "do you price match?", "")
	require.NoError(t, err)
	require.Equal(t, model.ToolResultText, result.Kind)
	require.Empty(t, result.Sources)
	require.Equal(t, 1, responder.calls)
	require.Empty(t, responder.blocks)
}
