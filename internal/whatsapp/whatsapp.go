// Package whatsapp sends and receives guest messages across WhatsApp
// providers. Each provider speaks its own wire format; everything past
// the package boundary works with plain phone numbers and text.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/setusher/Maldevta-farms/internal/config"
)

// Sender delivers one text message to a phone number in E.164 form.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// New builds the Sender named by the config.
func New(cfg config.WhatsAppConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "cloud", "":
		if cfg.Cloud.PhoneNumberID == "" || cfg.Cloud.AccessToken == "" {
			return nil, fmt.Errorf("whatsapp cloud provider needs phone_number_id and access_token")
		}
		return NewCloudSender(cfg.Cloud, logger), nil
	case "twilio":
		if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
			return nil, fmt.Errorf("twilio provider needs account_sid and auth_token")
		}
		return NewTwilioSender(cfg.Twilio, logger), nil
	case "gupshup":
		if cfg.Gupshup.APIKey == "" {
			return nil, fmt.Errorf("gupshup provider needs api_key")
		}
		return NewGupshupSender(cfg.Gupshup, logger), nil
	default:
		return nil, fmt.Errorf("unknown whatsapp provider %q", cfg.Provider)
	}
}
