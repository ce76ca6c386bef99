// ABOUTME: Store interface and data types for sms-gateway persistence
// ABOUTME: Defines Contact, Message structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Relationship categorizes how the user knows a contact
type Relationship string

const (
	RelationshipFamily  Relationship = "family"
	RelationshipFriend  Relationship = "friend"
	RelationshipWork    Relationship = "work"
	RelationshipUnknown Relationship = "unknown"
)

// Valid reports whether r is one of the recognized relationship labels.
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipFamily, RelationshipFriend, RelationshipWork, RelationshipUnknown:
		return true
	}
	return false
}

// Trust level constants. Higher values gate more automated behavior.
const (
	TrustUnknown      = 0
	TrustAcquaintance = 1
	TrustTrusted      = 2
	TrustVerified     = 3
)

// Direction indicates whether a message was received or sent
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Contact represents a phone number we have exchanged messages with,
// along with its relationship context. There is exactly one Contact
// per phone number.
type Contact struct {
	ID           string
	PhoneNumber  string
	Name         string // empty if unknown
	Relationship Relationship
	TrustLevel   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContactUpdate carries a partial update for a contact. Nil fields
// are left untouched.
type ContactUpdate struct {
	Name         *string
	Relationship *Relationship
	TrustLevel   *int
}

// Message is a single SMS in the append-only conversation log.
// IDs are assigned by the store in commit order; for a given contact
// they are strictly increasing, as are timestamps.
type Message struct {
	ID          int64
	ContactID   string
	PhoneNumber string
	Text        string
	Direction   Direction
	Timestamp   time.Time
	IsAutoReply bool
}

// ConversationSummary is one dashboard row: a phone number with its
// latest message and total message count.
type ConversationSummary struct {
	PhoneNumber  string
	ContactName  string
	LastMessage  string
	Timestamp    time.Time
	MessageCount int
}

// Stats holds aggregate counters for the dashboard.
type Stats struct {
	TotalContacts   int
	TotalMessages   int
	AutoRepliesSent int
}

// Store defines the interface for contact and message persistence
type Store interface {
	// Contacts
	GetOrCreateContact(ctx context.Context, phoneNumber string) (*Contact, error)
	GetContact(ctx context.Context, phoneNumber string) (*Contact, error)
	UpdateContact(ctx context.Context, phoneNumber string, update ContactUpdate) error

	// Messages
	SaveMessage(ctx context.Context, msg *Message) (int64, error)
	ConversationHistory(ctx context.Context, phoneNumber string, limit int) ([]*Message, error)
	RecentConversations(ctx context.Context, limit int) ([]*ConversationSummary, error)
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}
