package repository

import (
	"database/sql"
	"time"

	"github.com/xelochat/widget-engine/internal/widget"
)

// SessionRepository persists per-chatbot session identity and the local
// transcript. It implements widget.SessionStore and
// widget.TranscriptStore.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Token returns the stored session token for a chatbot, if any
func (r *SessionRepository) Token(chatbotID string) (string, bool, error) {
	var token string
	err := r.db.QueryRow(`SELECT token FROM sessions WHERE chatbot_id = ?`, chatbotID).Scan(&token)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// SaveToken stores the session token for a chatbot, replacing any
// previous one
func (r *SessionRepository) SaveToken(chatbotID, token string) error {
	now := time.Now()
	_, err := r.db.Exec(`
		INSERT INTO sessions (chatbot_id, token, opened, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		ON CONFLICT(chatbot_id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`, chatbotID, token, now, now)
	return err
}

// Opened reports whether this widget was ever opened before
func (r *SessionRepository) Opened(chatbotID string) (bool, error) {
	var opened int
	err := r.db.QueryRow(`SELECT opened FROM sessions WHERE chatbot_id = ?`, chatbotID).Scan(&opened)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return opened != 0, nil
}

// MarkOpened records the first open; best-effort, the widget ignores
// failures here
func (r *SessionRepository) MarkOpened(chatbotID string) error {
	_, err := r.db.Exec(`UPDATE sessions SET opened = 1, updated_at = ? WHERE chatbot_id = ?`,
		time.Now(), chatbotID)
	return err
}

// Append stores one transcript message
func (r *SessionRepository) Append(sessionToken string, msg widget.StoredMessage) error {
	_, err := r.db.Exec(`
		INSERT INTO messages (id, session_token, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, sessionToken, msg.Role, msg.Content, msg.CreatedAt)
	return err
}

// Load returns the stored transcript for a session in insertion order
func (r *SessionRepository) Load(sessionToken string) ([]widget.StoredMessage, error) {
	rows, err := r.db.Query(`
		SELECT id, role, content, created_at
		FROM messages WHERE session_token = ?
		ORDER BY created_at ASC
	`, sessionToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []widget.StoredMessage
	for rows.Next() {
		var m widget.StoredMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
