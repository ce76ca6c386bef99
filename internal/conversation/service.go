// ABOUTME: Service is the central pipeline for inbound SMS processing
// ABOUTME: Record first, then decide, reply and enrich - history is the source of truth

package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/sms-gateway/internal/delivery"
	"github.com/2389/sms-gateway/internal/policy"
	"github.com/2389/sms-gateway/internal/respond"
	"github.com/2389/sms-gateway/internal/store"
)

// FallbackReply is sent when reply generation fails or times out.
const FallbackReply = "Thanks for your message! I'll get back to you soon."

// Config holds the pipeline's tunable values. It is immutable; use
// the With* methods to derive a modified copy.
type Config struct {
	// GenerationTimeout bounds each generator call. Expiry is treated
	// like a transport failure and triggers the canned fallback.
	GenerationTimeout time.Duration

	// HistoryWindow is how many recent messages the policy and the
	// generator see.
	HistoryWindow int

	// FallbackText is the canned reply used when generation fails.
	FallbackText string
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		GenerationTimeout: 15 * time.Second,
		HistoryWindow:     10,
		FallbackText:      FallbackReply,
	}
}

// WithGenerationTimeout returns a copy of c with the timeout replaced.
func (c Config) WithGenerationTimeout(d time.Duration) Config {
	c.GenerationTimeout = d
	return c
}

// IncomingSMS is a normalized inbound message. The webhook layer maps
// provider-specific field names onto this before calling the service.
type IncomingSMS struct {
	From       string
	Body       string
	ReceivedAt time.Time
}

// Result describes what the pipeline did with one inbound message.
type Result struct {
	MessageID     int64
	ContactID     string
	Decision      policy.Decision
	AutoReplySent bool
	ResponseText  string
}

// SendResult describes a completed manual send.
type SendResult struct {
	MessageID int64
	ContactID string
}

// Dashboard is the summary view served to the UI.
type Dashboard struct {
	RecentConversations []*store.ConversationSummary
	Stats               *store.Stats
}

// ConversationView is one contact with its recent messages,
// newest first.
type ConversationView struct {
	Contact  *store.Contact
	Messages []*store.Message
}

// Service coordinates the inbound pipeline: persist, decide,
// optionally generate and dispatch a reply, then enrich in the
// background. Work for the same phone number is serialized; different
// numbers proceed in parallel.
type Service struct {
	store     store.Store
	generator respond.Generator
	sender    delivery.Sender
	cfg       Config
	locks     *keyedMutex
	logger    *slog.Logger

	// bg tracks in-flight enrichment goroutines so Close can drain them
	bg sync.WaitGroup
}

// New creates the conversation service.
func New(st store.Store, generator respond.Generator, sender delivery.Sender, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultConfig().GenerationTimeout
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultConfig().HistoryWindow
	}
	if cfg.FallbackText == "" {
		cfg.FallbackText = FallbackReply
	}
	return &Service{
		store:     st,
		generator: generator,
		sender:    sender,
		cfg:       cfg,
		locks:     newKeyedMutex(),
		logger:    logger.With("component", "conversation"),
	}
}

// ProcessIncoming runs the full pipeline for one inbound message.
//
// Key principle: record first, then act. The incoming message is
// saved BEFORE any decision logic runs, so history is never lost even
// if everything downstream fails. Only a persistence failure on that
// first write aborts the pipeline; generation and delivery failures
// degrade to best-effort behavior.
func (s *Service) ProcessIncoming(ctx context.Context, sms IncomingSMS) (*Result, error) {
	if sms.From == "" || sms.Body == "" {
		return nil, fmt.Errorf("from number and body are required")
	}

	// Serialize the whole pipeline per phone number so two messages
	// from the same sender can never interleave.
	unlock := s.locks.Lock(sms.From)
	defer unlock()

	contact, err := s.store.GetOrCreateContact(ctx, sms.From)
	if err != nil {
		return nil, fmt.Errorf("resolving contact: %w", err)
	}

	incoming := &store.Message{
		ContactID:   contact.ID,
		PhoneNumber: sms.From,
		Text:        sms.Body,
		Direction:   store.DirectionIncoming,
	}
	messageID, err := s.store.SaveMessage(ctx, incoming)
	if err != nil {
		return nil, fmt.Errorf("recording incoming message: %w", err)
	}

	s.logger.Info("incoming message recorded",
		"from", sms.From,
		"message_id", messageID)

	// History includes the message just recorded, newest first.
	history, err := s.store.ConversationHistory(ctx, sms.From, s.cfg.HistoryWindow)
	if err != nil {
		// The incoming message is safe; decide with what we have.
		s.logger.Warn("history fetch failed", "from", sms.From, "error", err)
		history = []*store.Message{incoming}
	}

	decision := policy.Evaluate(sms.Body, contact, history)
	result := &Result{
		MessageID: messageID,
		ContactID: contact.ID,
		Decision:  decision,
	}

	if decision.AutoReply {
		s.reply(ctx, contact, history, sms, result)
	} else {
		s.logger.Info("auto-reply withheld",
			"from", sms.From,
			"reason", decision.Reason)
	}

	// Enrichment never blocks or fails the primary path.
	s.scheduleEnrichment(contact, history, sms.Body)

	return result, nil
}

// reply generates, dispatches and records the automated response.
func (s *Service) reply(ctx context.Context, contact *store.Contact, history []*store.Message, sms IncomingSMS, result *Result) {
	text := s.generateReply(ctx, contact, history, sms.Body)

	if err := s.sender.Send(ctx, delivery.OutgoingSMS{To: sms.From, Body: text}); err != nil {
		// Not retried; the message was never carried, so no outgoing
		// row is written.
		s.logger.Error("auto-reply delivery failed", "to", sms.From, "error", err)
		return
	}

	outgoing := &store.Message{
		ContactID:   contact.ID,
		PhoneNumber: sms.From,
		Text:        text,
		Direction:   store.DirectionOutgoing,
		IsAutoReply: true,
	}
	if _, err := s.store.SaveMessage(ctx, outgoing); err != nil {
		// The reply is already on the wire; the audit row is lost.
		s.logger.Error("recording auto-reply failed", "to", sms.From, "error", err)
	}

	result.AutoReplySent = true
	result.ResponseText = text

	s.logger.Info("auto-reply sent", "to", sms.From)
}

// generateReply calls the generator under the configured timeout and
// falls back to canned text on any failure kind.
func (s *Service) generateReply(ctx context.Context, contact *store.Contact, history []*store.Message, incoming string) string {
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	text, err := s.generator.GenerateReply(gctx, contact, history, incoming)
	if err != nil {
		kind, _ := respond.KindOf(err)
		s.logger.Warn("reply generation failed, using fallback",
			"to", contact.PhoneNumber,
			"kind", kind,
			"error", err)
		return s.cfg.FallbackText
	}
	return text
}

// SendManual sends a human-authored message through the same
// serialized path as automated replies, bypassing the decision
// policy. Manual sends and auto-replies for one number share the same
// exclusion key, so they cannot interleave out of order.
func (s *Service) SendManual(ctx context.Context, toNumber, text string) (*SendResult, error) {
	if toNumber == "" || text == "" {
		return nil, fmt.Errorf("to number and message are required")
	}

	unlock := s.locks.Lock(toNumber)
	defer unlock()

	contact, err := s.store.GetOrCreateContact(ctx, toNumber)
	if err != nil {
		return nil, fmt.Errorf("resolving contact: %w", err)
	}

	if err := s.sender.Send(ctx, delivery.OutgoingSMS{To: toNumber, Body: text}); err != nil {
		return nil, fmt.Errorf("delivering message: %w", err)
	}

	outgoing := &store.Message{
		ContactID:   contact.ID,
		PhoneNumber: toNumber,
		Text:        text,
		Direction:   store.DirectionOutgoing,
	}
	messageID, err := s.store.SaveMessage(ctx, outgoing)
	if err != nil {
		return nil, fmt.Errorf("recording outgoing message: %w", err)
	}

	s.logger.Info("manual message sent", "to", toNumber, "message_id", messageID)

	return &SendResult{MessageID: messageID, ContactID: contact.ID}, nil
}

// Dashboard returns recent conversations and aggregate counters.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	conversations, err := s.store.RecentConversations(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("loading conversations: %w", err)
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	return &Dashboard{RecentConversations: conversations, Stats: stats}, nil
}

// Conversation returns one contact with its recent history,
// newest first.
func (s *Service) Conversation(ctx context.Context, phoneNumber string, limit int) (*ConversationView, error) {
	contact, err := s.store.GetOrCreateContact(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("resolving contact: %w", err)
	}

	messages, err := s.store.ConversationHistory(ctx, phoneNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	return &ConversationView{Contact: contact, Messages: messages}, nil
}

// Close drains background enrichment work.
func (s *Service) Close() {
	s.bg.Wait()
}
