// ABOUTME: Append-only message log operations for the SQLite store
// ABOUTME: Commit-ordered appends plus history, summary and stats queries

package store

import (
	"context"
	"fmt"
	"time"
)

// SaveMessage appends a message to the log and returns its ID. The
// ordering timestamp is assigned here, at persistence time, so commit
// order decides ordering rather than caller wall-clock skew. The
// returned ID strictly follows all previously committed messages.
// Rows are immutable once written.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) (int64, error) {
	if msg.ContactID == "" {
		return 0, fmt.Errorf("contact_id is required")
	}
	if msg.Direction != DirectionIncoming && msg.Direction != DirectionOutgoing {
		return 0, fmt.Errorf("invalid direction %q", msg.Direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.nextTimestamp(msg.PhoneNumber)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (contact_id, phone_number, message_text, direction, timestamp, is_auto_reply)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ContactID, msg.PhoneNumber, msg.Text, string(msg.Direction),
		ts.Format(timestampLayout), msg.IsAutoReply)
	if err != nil {
		return 0, fmt.Errorf("saving message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading message id: %w", err)
	}

	msg.ID = id
	msg.Timestamp = ts
	return id, nil
}

// ConversationHistory returns the most recent limit messages for a
// phone number, newest first. Callers wanting chronological order
// must reverse the slice.
func (s *SQLiteStore) ConversationHistory(ctx context.Context, phoneNumber string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contact_id, phone_number, message_text, direction, timestamp, is_auto_reply
		FROM messages
		WHERE phone_number = ?
		ORDER BY id DESC
		LIMIT ?`,
		phoneNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var m Message
		var direction, ts string
		if err := rows.Scan(&m.ID, &m.ContactID, &m.PhoneNumber, &m.Text, &direction, &ts, &m.IsAutoReply); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Direction = Direction(direction)
		if m.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		messages = append(messages, &m)
	}

	return messages, rows.Err()
}

// RecentConversations returns one summary row per distinct phone
// number, carrying its latest message, ordered newest first.
func (s *SQLiteStore) RecentConversations(ctx context.Context, limit int) ([]*ConversationSummary, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			m.phone_number,
			COALESCE(c.name, '') AS contact_name,
			m.message_text,
			m.timestamp,
			(SELECT COUNT(*) FROM messages m2 WHERE m2.phone_number = m.phone_number) AS message_count
		FROM messages m
		LEFT JOIN contacts c ON c.phone_number = m.phone_number
		WHERE m.id = (SELECT MAX(m3.id) FROM messages m3 WHERE m3.phone_number = m.phone_number)
		ORDER BY m.id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var summaries []*ConversationSummary
	for rows.Next() {
		var cs ConversationSummary
		var ts string
		if err := rows.Scan(&cs.PhoneNumber, &cs.ContactName, &cs.LastMessage, &ts, &cs.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning conversation summary: %w", err)
		}
		if cs.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		summaries = append(summaries, &cs)
	}

	return summaries, rows.Err()
}

// Stats returns aggregate counters for the dashboard.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts").Scan(&st.TotalContacts); err != nil {
		return nil, fmt.Errorf("counting contacts: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&st.TotalMessages); err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages WHERE is_auto_reply = 1").Scan(&st.AutoRepliesSent); err != nil {
		return nil, fmt.Errorf("counting auto-replies: %w", err)
	}

	return &st, nil
}
