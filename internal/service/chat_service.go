package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/helpdock/helpdock/internal/ai"
	"github.com/helpdock/helpdock/internal/model"
	apperrors "github.com/helpdock/helpdock/internal/pkg/errors"
	"github.com/helpdock/helpdock/internal/vectorstore"
)

// MaxMessageChars bounds one chat message.
const MaxMessageChars = 2000

// Responder produces the final grounded answer text.
type Responder interface {
	Answer(ctx context.Context, question string, contextBlocks []string) (string, error)
}

// OrderFinder looks an order up in the commerce backend.
type OrderFinder interface {
	FindOrder(ctx context.Context, number string, email string) (*model.Order, error)
}

// TicketCreator opens a support ticket in the ticketing backend.
type TicketCreator interface {
	CreateTicket(ctx context.Context, subject string, description string, requesterEmail string) (*model.Ticket, error)
}

type ChatOptions struct {
	TopK      int
	Threshold float32
}

// ChatService routes a customer message to the right tool: order lookup,
// human handoff, or retrieval-augmented answering over the knowledge base.
type ChatService struct {
	responder Responder
	embedder  ai.IEmbedder
	store     vectorstore.Store
	orders    OrderFinder
	tickets   TicketCreator
	opts      ChatOptions
}

func NewChatService(responder Responder, embedder ai.IEmbedder, store vectorstore.Store, orders OrderFinder, tickets TicketCreator, opts ChatOptions) *ChatService {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &ChatService{
		responder: responder,
		embedder:  embedder,
		store:     store,
		orders:    orders,
		tickets:   tickets,
		opts:      opts,
	}
}

var orderNumberRe = regexp.MustCompile(`#?(\d{4,})`)

var handoffKeywords = []string{"human", "agent", "representative", "ticket"}

// Answer dispatches one message. Tool selection is keyword based: an order
// number plus the word "order" triggers lookup, handoff phrasing opens a
// ticket, everything else goes through retrieval.
func (s *ChatService) Answer(ctx context.Context, message, email string) (*model.ToolResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", apperrors.ErrValidation)
	}
	if len(message) > MaxMessageChars {
		return nil, fmt.Errorf("%w: message exceeds %d characters", apperrors.ErrValidation, MaxMessageChars)
	}
	lower := strings.ToLower(message)

	if number, ok := detectOrderNumber(lower); ok && s.orders != nil {
		return s.answerOrder(ctx, number, email)
	}
	if wantsHandoff(lower) && s.tickets != nil {
		return s.answerHandoff(ctx, message, email)
	}
	return s.answerKnowledge(ctx, message)
}

func (s *ChatService) answerOrder(ctx context.Context, number, email string) (*model.ToolResult, error) {
	if strings.TrimSpace(email) == "" {
		return &model.ToolResult{
			Kind: model.ToolResultText,
			Text: "I can look that order up, but I need the email address it was placed with. Could you share it?",
		}, nil
	}
	order, err := s.orders.FindOrder(ctx, number, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &model.ToolResult{
			Kind: model.ToolResultText,
			Text: fmt.Sprintf("I couldn't find order #%s under that email address. Please double-check both and try again.", number),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("order lookup served", zap.String("order", number))
	return &model.ToolResult{
		Kind:  model.ToolResultOrder,
		Text:  fmt.Sprintf("Here is the latest on order #%s.", number),
		Order: order,
	}, nil
}

func (s *ChatService) answerHandoff(ctx context.Context, message, email string) (*model.ToolResult, error) {
	if strings.TrimSpace(email) == "" {
		return &model.ToolResult{
			Kind: model.ToolResultText,
			Text: "I can get you to a human. What email address should the support team reply to?",
		}, nil
	}
	ticket, err := s.tickets.CreateTicket(ctx, "Support request from chat", message, email)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("handoff ticket created", zap.Int64("ticket_id", ticket.ID))
	return &model.ToolResult{
		Kind:   model.ToolResultTicket,
		Text:   fmt.Sprintf("I've opened ticket #%d for you. A support agent will follow up by email.", ticket.ID),
		Ticket: ticket,
	}, nil
}

func (s *ChatService) answerKnowledge(ctx context.Context, message string) (*model.ToolResult, error) {
	vector, err := s.embedder.Embed(ctx, message, ai.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrEmbedding, err)
	}
	matches, err := s.store.Query(ctx, vector, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: query knowledge base: %v", apperrors.ErrFetch, err)
	}

	var blocks []string
	var sources []model.Source
	seen := map[string]bool{}
	for _, match := range matches {
		if match.Score < s.opts.Threshold {
			continue
		}
		blocks = append(blocks, match.Record.Metadata.Content)
		sourceID := sourceIDOf(match.Record)
		if seen[sourceID] {
			continue
		}
		seen[sourceID] = true
		sources = append(sources, model.Source{
			ID:          sourceID,
			Description: match.Record.Metadata.Description,
			Score:       match.Score,
		})
	}
	text, err := s.responder.Answer(ctx, message, blocks)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return &model.ToolResult{Kind: model.ToolResultText, Text: text}, nil
	}
	return &model.ToolResult{
		Kind:    model.ToolResultKnowledge,
		Text:    text,
		Sources: sources,
	}, nil
}

// detectOrderNumber requires both an order-ish word and a long digit run so
// plain questions that happen to contain numbers don't trigger a lookup.
func detectOrderNumber(lower string) (string, bool) {
	if !strings.Contains(lower, "order") {
		return "", false
	}
	m := orderNumberRe.FindStringSubmatch(lower)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func wantsHandoff(lower string) bool {
	for _, kw := range handoffKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// sourceIDOf maps a match back to the listable item it came from.
func sourceIDOf(record model.Record) string {
	if record.Metadata.ParentID != "" {
		return record.Metadata.ParentID
	}
	if base, ok := model.BaseID(record.ID); ok {
		return base
	}
	return record.ID
}
