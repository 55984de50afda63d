package whatsapp

import (
	"context"
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

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender sends messages through the Twilio WhatsApp API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewTwilioSender(cfg config.TwilioConfig, logger *slog.Logger) *TwilioSender {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultTwilioBaseURL
	}
	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    baseURL,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(30 * time.Second)),
		logger:     logger.With("component", "whatsapp", "provider", "twilio"),
	}
}

func (s *TwilioSender) Send(ctx context.Context, phone, text string) error {
	form := url.Values{}
	form.Set("From", "whatsapp:"+s.from)
	form.Set("To", "whatsapp:"+phone)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
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

// ParseTwilioForm extracts the inbound message from a Twilio webhook
// POST. Twilio delivers one message per request as form fields.
func ParseTwilioForm(form url.Values) (agent.Inbound, bool) {
	body := form.Get("Body")
	from := strings.TrimPrefix(form.Get("From"), "whatsapp:")
	if body == "" || from == "" {
		return agent.Inbound{}, false
	}
	return agent.Inbound{
		PhoneNumber:       from,
		Text:              body,
		ProviderMessageID: form.Get("MessageSid"),
		SenderDisplayName: form.Get("ProfileName"),
	}, true
}
