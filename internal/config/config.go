// Package config handles agent configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/maldevta/config.yaml, /etc/maldevta/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "maldevta", "config.yaml"))
	}

	paths = append(paths, "/etc/maldevta/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all agent configuration.
type Config struct {
	Listen       ListenConfig       `yaml:"listen"`
	Planner      PlannerConfig      `yaml:"planner"`
	TravelStudio TravelStudioConfig `yaml:"travel_studio"`
	WhatsApp     WhatsAppConfig     `yaml:"whatsapp"`
	Notify       NotifyConfig       `yaml:"notify"`
	DBPath       string             `yaml:"db_path"`
	PromptFile   string             `yaml:"prompt_file"`
	LogLevel     string             `yaml:"log_level"`
	LogFormat    string             `yaml:"log_format"` // text or json
}

// ListenConfig defines the webhook server settings.
type ListenConfig struct {
	Address     string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port        int    `yaml:"port"`
	VerifyToken string `yaml:"verify_token"` // Meta webhook verification token
}

// PlannerConfig defines the LLM provider settings.
type PlannerConfig struct {
	Provider string `yaml:"provider"` // gemini
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // override for testing
}

// TravelStudioConfig defines the booking backend connection.
type TravelStudioConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// WhatsAppConfig selects and configures the outbound transport.
// Exactly one provider is active at a time; Provider names it.
type WhatsAppConfig struct {
	Provider string        `yaml:"provider"` // cloud, twilio, gupshup
	Cloud    CloudConfig   `yaml:"cloud"`
	Twilio   TwilioConfig  `yaml:"twilio"`
	Gupshup  GupshupConfig `yaml:"gupshup"`
}

// CloudConfig holds Meta WhatsApp Cloud API credentials.
type CloudConfig struct {
	PhoneNumberID string `yaml:"phone_number_id"`
	AccessToken   string `yaml:"access_token"`
	BaseURL       string `yaml:"base_url"` // override for testing
}

// TwilioConfig holds Twilio API credentials.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
	BaseURL    string `yaml:"base_url"` // override for testing
}

// GupshupConfig holds Gupshup API credentials.
type GupshupConfig struct {
	APIKey     string `yaml:"api_key"`
	AppName    string `yaml:"app_name"`
	FromNumber string `yaml:"from_number"`
	BaseURL    string `yaml:"base_url"` // override for testing
}

// NotifyConfig defines the escalation email dispatch settings.
type NotifyConfig struct {
	SMTP       SMTPConfig `yaml:"smtp"`
	From       string     `yaml:"from"`        // e.g. "Booking Agent <agent@maldevtafarms.com>"
	OwnerEmail string     `yaml:"owner_email"` // escalation recipient
}

// SMTPConfig holds SMTP server connection parameters for outbound email.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"` // Default: 587 (submission with STARTTLS)
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// StartTLS selects plain-then-upgrade (port 587). When false, the
	// connection is implicit TLS from the start (port 465).
	StartTLS bool `yaml:"starttls"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Planner: PlannerConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Notify: NotifyConfig{
			SMTP: SMTPConfig{Port: 587, StartTLS: true},
		},
		DBPath:    "maldevta.db",
		LogFormat: "text",
	}
}
