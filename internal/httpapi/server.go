// ABOUTME: HTTP surface for the SMS gateway
// ABOUTME: Webhook intake, manual send, dashboard and contact endpoints

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2389/sms-gateway/internal/conversation"
	"github.com/2389/sms-gateway/internal/dedupe"
	"github.com/2389/sms-gateway/internal/store"
)

// Server exposes the gateway over HTTP. The webhook handler returns
// immediately after scheduling the pipeline; everything else is a
// synchronous query or command.
type Server struct {
	svc    *conversation.Service
	store  store.Store
	dedupe *dedupe.Cache
	logger *slog.Logger
}

// New creates the HTTP server wiring.
func New(svc *conversation.Service, st store.Store, dd *dedupe.Cache, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:    svc,
		store:  st,
		dedupe: dd,
		logger: logger.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all gateway routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /webhook/sms", s.handleWebhook)
	mux.HandleFunc("POST /send", s.handleSend)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /conversation/{phone}", s.handleConversation)
	mux.HandleFunc("PUT /contact", s.handleContact)
	mux.HandleFunc("GET /stats", s.handleStats)
}

// webhookPayload accepts both Twilio's capitalized form fields and
// lowercase JSON aliases.
type webhookPayload struct {
	From       string `json:"From"`
	FromAlias  string `json:"from"`
	Body       string `json:"Body"`
	BodyAlias  string `json:"body"`
	MessageSid string `json:"MessageSid"`
	SidAlias   string `json:"message_sid"`
}

func (p *webhookPayload) fromNumber() string {
	if p.From != "" {
		return p.From
	}
	return p.FromAlias
}

func (p *webhookPayload) messageBody() string {
	if p.Body != "" {
		return p.Body
	}
	return p.BodyAlias
}

func (p *webhookPayload) sid() string {
	if p.MessageSid != "" {
		return p.MessageSid
	}
	return p.SidAlias
}

// handleWebhook accepts an inbound SMS, schedules the pipeline and
// acknowledges before any processing happens, so the provider never
// waits on generation.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeWebhook(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	from, body := payload.fromNumber(), payload.messageBody()
	if from == "" || body == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("missing required fields: from and body"))
		return
	}

	if sid := payload.sid(); sid != "" && s.dedupe != nil && s.dedupe.CheckAndMark(sid) {
		s.logger.Info("webhook redelivery dropped", "sid", sid, "from", from)
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	sms := conversation.IncomingSMS{
		From:       from,
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	}

	// Fire and forget: the unit of work outlives this request and
	// is never cancelled from outside.
	go func() {
		if _, err := s.svc.ProcessIncoming(context.Background(), sms); err != nil {
			s.logger.Error("inbound processing failed", "from", sms.From, "error", err)
		}
	}()

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// decodeWebhook reads form-encoded (Twilio) or JSON payloads.
func decodeWebhook(r *http.Request) (*webhookPayload, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parsing webhook form: %w", err)
		}
		return &webhookPayload{
			From:       r.PostFormValue("From"),
			FromAlias:  r.PostFormValue("from"),
			Body:       r.PostFormValue("Body"),
			BodyAlias:  r.PostFormValue("body"),
			MessageSid: r.PostFormValue("MessageSid"),
			SidAlias:   r.PostFormValue("message_sid"),
		}, nil
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parsing webhook body: %w", err)
	}
	return &payload, nil
}

// sendRequest is the JSON request body for POST /send.
type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request: %w", err))
		return
	}

	result, err := s.svc.SendManual(r.Context(), req.To, req.Message)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "sent",
		"message_id": result.MessageID,
		"contact_id": result.ContactID,
	})
}

// conversationSummaryJSON is one dashboard row.
type conversationSummaryJSON struct {
	PhoneNumber  string `json:"phone_number"`
	ContactName  string `json:"contact_name"`
	LastMessage  string `json:"last_message"`
	Timestamp    string `json:"timestamp"`
	MessageCount int    `json:"message_count"`
}

type statsJSON struct {
	TotalContacts   int `json:"total_contacts"`
	TotalMessages   int `json:"total_messages"`
	AutoRepliesSent int `json:"auto_replies_sent"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.svc.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	conversations := make([]conversationSummaryJSON, 0, len(dashboard.RecentConversations))
	for _, c := range dashboard.RecentConversations {
		conversations = append(conversations, conversationSummaryJSON{
			PhoneNumber:  c.PhoneNumber,
			ContactName:  c.ContactName,
			LastMessage:  c.LastMessage,
			Timestamp:    c.Timestamp.Format(time.RFC3339),
			MessageCount: c.MessageCount,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"recent_conversations": conversations,
		"stats":                statsFromStore(dashboard.Stats),
	})
}

type contactJSON struct {
	ID           string `json:"id"`
	PhoneNumber  string `json:"phone_number"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	TrustLevel   int    `json:"trust_level"`
}

type messageJSON struct {
	ID          int64  `json:"id"`
	Text        string `json:"text"`
	Direction   string `json:"direction"`
	Timestamp   string `json:"timestamp"`
	IsAutoReply bool   `json:"is_auto_reply"`
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	phone := r.PathValue("phone")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	view, err := s.svc.Conversation(r.Context(), phone, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	messages := make([]messageJSON, 0, len(view.Messages))
	for _, m := range view.Messages {
		messages = append(messages, messageJSON{
			ID:          m.ID,
			Text:        m.Text,
			Direction:   string(m.Direction),
			Timestamp:   m.Timestamp.Format(time.RFC3339),
			IsAutoReply: m.IsAutoReply,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"contact": contactJSON{
			ID:           view.Contact.ID,
			PhoneNumber:  view.Contact.PhoneNumber,
			Name:         view.Contact.Name,
			Relationship: string(view.Contact.Relationship),
			TrustLevel:   view.Contact.TrustLevel,
		},
		"messages": messages,
	})
}

// contactUpdateRequest is the JSON request body for PUT /contact.
type contactUpdateRequest struct {
	PhoneNumber  string  `json:"phone_number"`
	Name         *string `json:"name"`
	Relationship *string `json:"relationship"`
	TrustLevel   *int    `json:"trust_level"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request: %w", err))
		return
	}
	if req.PhoneNumber == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("phone_number is required"))
		return
	}

	update := store.ContactUpdate{
		Name:       req.Name,
		TrustLevel: req.TrustLevel,
	}
	if req.Relationship != nil {
		rel := store.Relationship(*req.Relationship)
		update.Relationship = &rel
	}

	err := s.store.UpdateContact(r.Context(), req.PhoneNumber, update)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("contact %s not found", req.PhoneNumber))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":       "updated",
		"phone_number": req.PhoneNumber,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statsFromStore(stats))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "SMS gateway is running",
		"status":  "healthy",
	})
}

func statsFromStore(st *store.Stats) statsJSON {
	return statsJSON{
		TotalContacts:   st.TotalContacts,
		TotalMessages:   st.TotalMessages,
		AutoRepliesSent: st.AutoRepliesSent,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
