// Package api implements the webhook HTTP server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/setusher/Maldevta-farms/internal/agent"
	"github.com/setusher/Maldevta-farms/internal/buildinfo"
	"github.com/setusher/Maldevta-farms/internal/store"
	"github.com/setusher/Maldevta-farms/internal/whatsapp"
)

// maxWebhookBody caps how much of a webhook delivery we read.
const maxWebhookBody = 1 << 20

// turnTimeout bounds one guest turn end to end, planner and tools
// included.
const turnTimeout = 120 * time.Second

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the webhook HTTP server. Inbound messages are acknowledged
// immediately and processed in the background; WhatsApp providers
// retry deliveries that aren't ACKed fast.
type Server struct {
	address     string
	port        int
	verifyToken string
	provider    string
	orch        *agent.Orchestrator
	sender      whatsapp.Sender
	store       store.Store
	logger      *slog.Logger
	server      *http.Server
	inflight    sync.WaitGroup
}

// NewServer creates the webhook server. provider selects which webhook
// wire format to parse and must match the configured Sender.
func NewServer(address string, port int, verifyToken, provider string, orch *agent.Orchestrator, sender whatsapp.Sender, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == "" {
		provider = "cloud"
	}
	return &Server{
		address:     address,
		port:        port,
		verifyToken: verifyToken,
		provider:    provider,
		orch:        orch,
		sender:      sender,
		store:       st,
		logger:      logger.With("component", "api"),
	}
}

// Handler returns the route table. Split out from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /webhook", s.handleWebhookVerify)
	mux.HandleFunc("POST /webhook", s.handleWebhookPost)

	mux.HandleFunc("POST /v1/send-message", s.handleSendMessage)
	mux.HandleFunc("GET /v1/conversations/{phone}/messages", s.handleConversationMessages)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(mux)
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting webhook server", "address", addr, "port", s.port, "provider", s.provider)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight guest
// turns to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

// handleWebhookVerify answers the Meta subscription handshake: echo
// hub.challenge back when the verify token matches.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.verifyToken && s.verifyToken != "" {
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "verification failed", http.StatusForbidden)
}

func (s *Server) handleWebhookPost(w http.ResponseWriter, r *http.Request) {
	inbound, err := s.parseInbound(r)
	if err != nil {
		s.logger.Warn("unparseable webhook delivery", "provider", s.provider, "error", err)
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	for _, msg := range inbound {
		s.inflight.Add(1)
		go func(msg agent.Inbound) {
			defer s.inflight.Done()
			s.processInbound(msg)
		}(msg)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) parseInbound(r *http.Request) ([]agent.Inbound, error) {
	switch s.provider {
	case "twilio":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		msg, ok := whatsapp.ParseTwilioForm(r.PostForm)
		if !ok {
			return nil, nil
		}
		return []agent.Inbound{msg}, nil
	case "gupshup":
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			return nil, err
		}
		msg, ok, err := whatsapp.ParseGupshupWebhook(body)
		if err != nil || !ok {
			return nil, err
		}
		return []agent.Inbound{msg}, nil
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			return nil, err
		}
		return whatsapp.ParseCloudWebhook(body)
	}
}

// processInbound runs one guest turn and delivers the reply.
func (s *Server) processInbound(msg agent.Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	reply, err := s.orch.ProcessMessage(ctx, msg)
	if err != nil {
		s.logger.Error("processing inbound message failed", "phone", msg.PhoneNumber, "error", err)
		return
	}
	if err := s.sender.Send(ctx, msg.PhoneNumber, reply); err != nil {
		s.logger.Error("sending reply failed", "phone", msg.PhoneNumber, "error", err)
	}
}

// handleSendMessage lets operators push a message to a guest outside
// the conversation loop. The message is recorded so the planner sees
// it in history on the guest's next turn.
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Text  string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" || req.Text == "" {
		http.Error(w, "phone and text are required", http.StatusBadRequest)
		return
	}

	if err := s.sender.Send(r.Context(), req.Phone, req.Text); err != nil {
		s.logger.Error("operator send failed", "phone", req.Phone, "error", err)
		http.Error(w, "send failed", http.StatusBadGateway)
		return
	}

	conv, err := s.store.GetOrCreateActiveConversation(req.Phone)
	if err == nil {
		if _, err := s.store.SaveOutbound(conv.ID, req.Text); err != nil {
			s.logger.Warn("recording operator message failed", "error", err)
		}
	}

	writeJSON(w, map[string]any{"status": "sent"}, s.logger)
}

func (s *Server) handleConversationMessages(w http.ResponseWriter, r *http.Request) {
	phone := r.PathValue("phone")

	conv, err := s.store.GetOrCreateActiveConversation(phone)
	if err != nil {
		http.Error(w, "conversation lookup failed", http.StatusInternalServerError)
		return
	}
	messages, err := s.store.RecentMessages(conv.ID, 50)
	if err != nil {
		http.Error(w, "message lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"conversation_id": conv.ID,
		"status":          conv.Status,
		"messages":        messages,
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, s.logger)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
