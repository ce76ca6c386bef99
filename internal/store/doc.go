// Package store provides persistent storage for the SMS gateway using SQLite.
//
// # Data Models
//
//   - Contact: one row per phone number with relationship context
//     (relationship label, trust level 0-3)
//   - Message: append-only conversation log; rows are immutable and
//     never deleted
//   - ConversationSummary / Stats: read models for the dashboard
//
// # Ordering
//
// Message IDs are assigned by SQLite in commit order, and the store
// assigns each message's timestamp at persistence time, bumped to be
// strictly after the previous message for the same phone number. For
// a given contact, ordering by ID and ordering by timestamp agree,
// and both match the order in which appends committed.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// ErrNotFound is returned when a requested entity does not exist.
// All methods accept context.Context for cancellation support.
package store
