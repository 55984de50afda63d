package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite-backed conversation store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *SQLiteStore) migrate() error {
	schema := `
	-- Conversations: one active thread per phone number
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		phone_number TEXT NOT NULL,
		user_name TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_phone ON conversations(phone_number, status);

	-- Messages
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		phone_number TEXT,
		direction TEXT NOT NULL,
		content TEXT NOT NULL,
		provider_message_id TEXT,
		timestamp TEXT NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp);

	-- Tool calls (audit trail, queryable)
	CREATE TABLE IF NOT EXISTS tool_calls (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		tool_name TEXT NOT NULL,
		arguments TEXT,
		success INTEGER NOT NULL DEFAULT 0,
		result TEXT,
		error TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_tool_calls_conversation ON tool_calls(conversation_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool_name);

	-- Guest memory: durable facts keyed by phone number
	CREATE TABLE IF NOT EXISTS agent_memory (
		id TEXT PRIMARY KEY,
		phone_number TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(phone_number, key)
	);
	CREATE INDEX IF NOT EXISTS idx_agent_memory_phone ON agent_memory(phone_number);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetOrCreateActiveConversation returns the active conversation for a
// phone number. When none exists, a new one is created; closed
// conversations are never reopened.
func (s *SQLiteStore) GetOrCreateActiveConversation(phoneNumber string) (*Conversation, error) {
	row := s.db.QueryRow(`
		SELECT id, phone_number, user_name, status, created_at, updated_at
		FROM conversations
		WHERE phone_number = ? AND status = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, phoneNumber, StatusActive)

	conv, err := scanConversation(row)
	if err == nil {
		return conv, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	now := time.Now().UTC()
	id, _ := uuid.NewV7()

	_, err = s.db.Exec(`
		INSERT INTO conversations (id, phone_number, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id.String(), phoneNumber, StatusActive, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return &Conversation{
		ID:          id.String(),
		PhoneNumber: phoneNumber,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CloseConversation marks a conversation closed.
func (s *SQLiteStore) CloseConversation(conversationID string) error {
	now := time.Now().UTC()
	result, err := s.db.Exec(`
		UPDATE conversations SET status = ?, updated_at = ? WHERE id = ?
	`, StatusClosed, now.Format(time.RFC3339), conversationID)
	if err != nil {
		return fmt.Errorf("close conversation: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation not found: %s", conversationID)
	}
	return nil
}

// SetConversationUserName records the guest's WhatsApp display name on
// a conversation. Set-if-empty: a name already on the row stays.
func (s *SQLiteStore) SetConversationUserName(conversationID, userName string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		UPDATE conversations SET user_name = ?, updated_at = ?
		WHERE id = ? AND (user_name IS NULL OR user_name = '')
	`, userName, now.Format(time.RFC3339), conversationID)
	if err != nil {
		return fmt.Errorf("set user name: %w", err)
	}
	return nil
}

// SaveInbound persists a guest message.
func (s *SQLiteStore) SaveInbound(conversationID, content, providerMessageID string) (*Message, error) {
	return s.saveMessage(conversationID, DirectionInbound, content, providerMessageID)
}

// SaveOutbound persists an agent reply. The provider message ID is
// synthesized since the reply may not have been dispatched yet.
func (s *SQLiteStore) SaveOutbound(conversationID, content string) (*Message, error) {
	return s.saveMessage(conversationID, DirectionOutbound, content, OutboundMessageID())
}

// OutboundMessageID synthesizes a provider message ID for outbound rows.
func OutboundMessageID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "OUT_" + hex[:24]
}

func (s *SQLiteStore) saveMessage(conversationID, direction, content, providerMessageID string) (*Message, error) {
	now := time.Now().UTC()
	id, _ := uuid.NewV7()

	// Messages carry the guest phone so memory lookups don't need a
	// join back through the conversation.
	var phone string
	if err := s.db.QueryRow(`
		SELECT phone_number FROM conversations WHERE id = ?
	`, conversationID).Scan(&phone); err != nil {
		return nil, fmt.Errorf("resolve conversation phone: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT INTO messages (id, conversation_id, phone_number, direction, content, provider_message_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id.String(), conversationID, phone, direction, content, providerMessageID, now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE conversations SET updated_at = ? WHERE id = ?
	`, now.Format(time.RFC3339), conversationID)
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}

	return &Message{
		ID:                id.String(),
		ConversationID:    conversationID,
		PhoneNumber:       phone,
		Direction:         direction,
		Role:              roleForDirection(direction),
		Content:           content,
		ProviderMessageID: providerMessageID,
		Timestamp:         now,
	}, nil
}

func roleForDirection(direction string) string {
	if direction == DirectionOutbound {
		return "model"
	}
	return "user"
}

// RecentMessages returns the last limit messages in chronological order.
func (s *SQLiteStore) RecentMessages(conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}

	// Select the newest rows, then flip back to chronological order.
	rows, err := s.db.Query(`
		SELECT id, conversation_id, phone_number, direction, content, provider_message_id, timestamp
		FROM (
			SELECT id, conversation_id, phone_number, direction, content, provider_message_id, timestamp
			FROM messages
			WHERE conversation_id = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?
		)
		ORDER BY timestamp ASC, id ASC
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var phone, sid sql.NullString
		var ts string
		if err := rows.Scan(&m.ID, &m.ConversationID, &phone, &m.Direction, &m.Content, &sid, &ts); err != nil {
			return nil, err
		}
		if phone.Valid {
			m.PhoneNumber = phone.String
		}
		if sid.Valid {
			m.ProviderMessageID = sid.String
		}
		m.Role = roleForDirection(m.Direction)
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// RecordToolCall persists one tool execution audit record. When the full
// insert fails, a minimal row (name and outcome only) is attempted so the
// audit trail keeps at least the fact that the call happened.
func (s *SQLiteStore) RecordToolCall(conversationID, toolName, arguments string, success bool, result, errMsg string) error {
	now := time.Now().UTC()
	id, _ := uuid.NewV7()

	_, err := s.db.Exec(`
		INSERT INTO tool_calls (id, conversation_id, tool_name, arguments, success, result, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id.String(), conversationID, toolName, arguments, success, result, errMsg, now.Format(time.RFC3339))
	if err == nil {
		return nil
	}

	_, fallbackErr := s.db.Exec(`
		INSERT INTO tool_calls (id, conversation_id, tool_name, success, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id.String(), conversationID, toolName, success, now.Format(time.RFC3339))
	if fallbackErr != nil {
		return fmt.Errorf("record tool call: %w", err)
	}
	return nil
}

// ToolCalls returns recent tool call records for a conversation, newest first.
func (s *SQLiteStore) ToolCalls(conversationID string, limit int) ([]ToolCall, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, conversation_id, tool_name, arguments, success, result, error, created_at
		FROM tool_calls
		WHERE conversation_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query tool calls: %w", err)
	}
	defer rows.Close()

	var calls []ToolCall
	for rows.Next() {
		var tc ToolCall
		var args, result, errMsg sql.NullString
		var ts string
		if err := rows.Scan(&tc.ID, &tc.ConversationID, &tc.ToolName, &args, &tc.Success, &result, &errMsg, &ts); err != nil {
			return nil, err
		}
		if args.Valid {
			tc.Arguments = args.String
		}
		if result.Valid {
			tc.Result = result.String
		}
		if errMsg.Valid {
			tc.Error = errMsg.String
		}
		tc.CreatedAt, _ = time.Parse(time.RFC3339, ts)
		calls = append(calls, tc)
	}
	return calls, rows.Err()
}

// SetMemory creates or updates a fact for a phone number.
func (s *SQLiteStore) SetMemory(phoneNumber, key, value string) (*Memory, error) {
	now := time.Now().UTC()

	// Check if exists
	var existingID, existingCreated string
	err := s.db.QueryRow(`
		SELECT id, created_at FROM agent_memory WHERE phone_number = ? AND key = ?
	`, phoneNumber, key).Scan(&existingID, &existingCreated)

	if err == sql.ErrNoRows {
		id, _ := uuid.NewV7()
		_, err = s.db.Exec(`
			INSERT INTO agent_memory (id, phone_number, key, value, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id.String(), phoneNumber, key, value, now.Format(time.RFC3339), now.Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("insert memory: %w", err)
		}
		return &Memory{
			ID:          id.String(),
			PhoneNumber: phoneNumber,
			Key:         key,
			Value:       value,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("check existing: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE agent_memory SET value = ?, updated_at = ?
		WHERE phone_number = ? AND key = ?
	`, value, now.Format(time.RFC3339), phoneNumber, key)
	if err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}

	created, _ := time.Parse(time.RFC3339, existingCreated)
	return &Memory{
		ID:          existingID,
		PhoneNumber: phoneNumber,
		Key:         key,
		Value:       value,
		CreatedAt:   created,
		UpdatedAt:   now,
	}, nil
}

// GetMemory retrieves one fact. Returns nil, nil when absent.
func (s *SQLiteStore) GetMemory(phoneNumber, key string) (*Memory, error) {
	row := s.db.QueryRow(`
		SELECT id, phone_number, key, value, created_at, updated_at
		FROM agent_memory
		WHERE phone_number = ? AND key = ?
	`, phoneNumber, key)

	var m Memory
	var created, updated string
	err := row.Scan(&m.ID, &m.PhoneNumber, &m.Key, &m.Value, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query memory: %w", err)
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, created)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &m, nil
}

// AllMemory returns every fact for a phone number, keyed by fact name.
func (s *SQLiteStore) AllMemory(phoneNumber string) (map[string]string, error) {
	rows, err := s.db.Query(`
		SELECT key, value FROM agent_memory WHERE phone_number = ? ORDER BY key
	`, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("query memory: %w", err)
	}
	defer rows.Close()

	facts := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		facts[k] = v
	}
	return facts, rows.Err()
}

func scanConversation(row *sql.Row) (*Conversation, error) {
	var c Conversation
	var userName sql.NullString
	var created, updated string

	err := row.Scan(&c.ID, &c.PhoneNumber, &userName, &c.Status, &created, &updated)
	if err != nil {
		return nil, err
	}
	if userName.Valid {
		c.UserName = userName.String
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, created)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &c, nil
}
