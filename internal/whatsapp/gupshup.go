package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/setusher/Maldevta-farms/internal/agent"
	"github.com/setusher/Maldevta-farms/internal/config"
	"github.com/setusher/Maldevta-farms/internal/httpkit"
)

const defaultGupshupBaseURL = "https://api.gupshup.io"

// GupshupSender sends messages through the Gupshup WhatsApp API.
type GupshupSender struct {
	apiKey     string
	appName    string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGupshupSender(cfg config.GupshupConfig, logger *slog.Logger) *GupshupSender {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGupshupBaseURL
	}
	return &GupshupSender{
		apiKey:     cfg.APIKey,
		appName:    cfg.AppName,
		from:       cfg.FromNumber,
		baseURL:    baseURL,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(30 * time.Second)),
		logger:     logger.With("component", "whatsapp", "provider", "gupshup"),
	}
}

func (s *GupshupSender) Send(ctx context.Context, phone, text string) error {
	message, err := json.Marshal(map[string]string{"type": "text", "text": text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	form := url.Values{}
	form.Set("channel", "whatsapp")
	form.Set("source", s.from)
	form.Set("destination", strings.TrimPrefix(phone, "+"))
	form.Set("src.name", s.appName)
	form.Set("message", string(message))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/wa/api/v1/msg", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send message to %s: status %d: %s",
			phone, resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 2048))
	}

	s.logger.Debug("message sent", "to", phone, "chars", len(text))
	return nil
}

// Inbound Gupshup webhook payload. Only message events carry payload
// text; everything else is delivery bookkeeping.
type gupshupWebhook struct {
	Type    string `json:"type"`
	Payload struct {
		ID      string `json:"id"`
		Source  string `json:"source"`
		Type    string `json:"type"`
		Payload struct {
			Text string `json:"text"`
		} `json:"payload"`
		Sender struct {
			Phone string `json:"phone"`
			Name  string `json:"name"`
		} `json:"sender"`
	} `json:"payload"`
}

// ParseGupshupWebhook extracts an inbound text message from a Gupshup
// webhook delivery, if the event carries one.
func ParseGupshupWebhook(body []byte) (agent.Inbound, bool, error) {
	var hook gupshupWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return agent.Inbound{}, false, fmt.Errorf("parse webhook payload: %w", err)
	}
	if hook.Type != "message" || hook.Payload.Type != "text" || hook.Payload.Payload.Text == "" {
		return agent.Inbound{}, false, nil
	}

	phone := hook.Payload.Sender.Phone
	if phone == "" {
		phone = hook.Payload.Source
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	return agent.Inbound{
		PhoneNumber:       phone,
		Text:              hook.Payload.Payload.Text,
		ProviderMessageID: hook.Payload.ID,
		SenderDisplayName: hook.Payload.Sender.Name,
	}, true, nil
}
