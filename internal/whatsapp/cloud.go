package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/setusher/Maldevta-farms/internal/agent"
	"github.com/setusher/Maldevta-farms/internal/config"
	"github.com/setusher/Maldevta-farms/internal/httpkit"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// CloudSender sends messages through the Meta WhatsApp Cloud API.
type CloudSender struct {
	phoneNumberID string
	accessToken   string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewCloudSender(cfg config.CloudConfig, logger *slog.Logger) *CloudSender {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	return &CloudSender{
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		baseURL:       baseURL,
		httpClient:    httpkit.NewClient(httpkit.WithTimeout(30 * time.Second)),
		logger:        logger.With("component", "whatsapp", "provider", "cloud"),
	}
}

func (s *CloudSender) Send(ctx context.Context, phone, text string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "text",
		"text":              map[string]any{"body": text},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("send message to %s: status %d: %s",
			phone, resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 2048))
	}

	s.logger.Debug("message sent", "to", phone, "chars", len(text))
	return nil
}

// Webhook payload shapes for inbound Cloud API notifications. Only the
// fields we read are declared.
type cloudWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseCloudWebhook extracts inbound text messages from a Cloud API
// webhook delivery. Status updates and non-text messages are skipped.
func ParseCloudWebhook(body []byte) ([]agent.Inbound, error) {
	var hook cloudWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}

	var inbound []agent.Inbound
	for _, entry := range hook.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string)
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text.Body == "" {
					continue
				}
				inbound = append(inbound, agent.Inbound{
					PhoneNumber:       "+" + msg.From,
					Text:              msg.Text.Body,
					ProviderMessageID: msg.ID,
					SenderDisplayName: names[msg.From],
				})
			}
		}
	}
	return inbound, nil
}
