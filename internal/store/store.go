// Package store provides conversation and memory persistence.
package store

import "time"

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Conversation statuses.
const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Conversation is a message thread with one guest phone number.
// At most one conversation per phone number is active at a time.
type Conversation struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	UserName    string    `json:"user_name,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message is a single inbound or outbound WhatsApp message.
// Role is derived from direction: inbound messages are "user",
// outbound messages are "model".
type Message struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversation_id"`
	PhoneNumber       string    `json:"phone_number"`
	Direction         string    `json:"direction"`
	Role              string    `json:"role"`
	Content           string    `json:"content"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// ToolCall is an audit record of one tool execution within a turn.
type ToolCall struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	ToolName       string    `json:"tool_name"`
	Arguments      string    `json:"arguments"`
	Success        bool      `json:"success"`
	Result         string    `json:"result,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Memory is a durable fact about a guest, keyed by phone number and
// fact name. Facts survive across conversations.
type Memory struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is the persistence interface the orchestrator depends on.
type Store interface {
	// GetOrCreateActiveConversation returns the active conversation for
	// a phone number, creating one if none exists.
	GetOrCreateActiveConversation(phoneNumber string) (*Conversation, error)

	// CloseConversation marks a conversation closed.
	CloseConversation(conversationID string) error

	// SetConversationUserName records the guest's display name on a
	// conversation. A name already recorded is never overwritten.
	SetConversationUserName(conversationID, userName string) error

	// SaveInbound persists a guest message with its provider message ID.
	SaveInbound(conversationID, content, providerMessageID string) (*Message, error)

	// SaveOutbound persists an agent reply, synthesizing a message ID.
	SaveOutbound(conversationID, content string) (*Message, error)

	// RecentMessages returns the last limit messages in chronological order.
	RecentMessages(conversationID string, limit int) ([]Message, error)

	// RecordToolCall persists one tool execution audit record.
	RecordToolCall(conversationID, toolName, arguments string, success bool, result, errMsg string) error

	// ToolCalls returns recent tool call records for a conversation,
	// newest first.
	ToolCalls(conversationID string, limit int) ([]ToolCall, error)

	// SetMemory creates or updates a fact for a phone number.
	SetMemory(phoneNumber, key, value string) (*Memory, error)

	// GetMemory retrieves one fact. Returns nil when absent.
	GetMemory(phoneNumber, key string) (*Memory, error)

	// AllMemory returns every fact for a phone number, keyed by fact name.
	AllMemory(phoneNumber string) (map[string]string, error)

	Close() error
}
