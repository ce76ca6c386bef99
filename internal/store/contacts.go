// ABOUTME: Contact registry operations for the SQLite store
// ABOUTME: Lazy creation keyed by phone number plus partial updates

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GetOrCreateContact returns the contact for phoneNumber, creating it
// with relationship=unknown and trust_level=0 on first reference.
// Safe under concurrent calls with the same number: the UNIQUE
// constraint on phone_number makes the insert idempotent, and every
// caller reads back the winning row.
func (s *SQLiteStore) GetOrCreateContact(ctx context.Context, phoneNumber string) (*Contact, error) {
	if phoneNumber == "" {
		return nil, fmt.Errorf("phone number is required")
	}

	now := time.Now().UTC().Format(timestampLayout)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, phone_number, relationship, trust_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(phone_number) DO NOTHING`,
		uuid.New().String(), phoneNumber, string(RelationshipUnknown), TrustUnknown, now, now)
	if err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}

	return s.GetContact(ctx, phoneNumber)
}

// GetContact returns the contact for phoneNumber, or ErrNotFound.
func (s *SQLiteStore) GetContact(ctx context.Context, phoneNumber string) (*Contact, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, phone_number, name, relationship, trust_level, created_at, updated_at
		FROM contacts WHERE phone_number = ?`,
		phoneNumber)

	return scanContact(row)
}

// UpdateContact merges the provided fields into the contact and
// refreshes updated_at. Returns ErrNotFound if the contact does not
// exist. Fields left nil in the update are untouched.
func (s *SQLiteStore) UpdateContact(ctx context.Context, phoneNumber string, update ContactUpdate) error {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Relationship != nil {
		if !update.Relationship.Valid() {
			return fmt.Errorf("invalid relationship %q", *update.Relationship)
		}
		sets = append(sets, "relationship = ?")
		args = append(args, string(*update.Relationship))
	}
	if update.TrustLevel != nil {
		if *update.TrustLevel < TrustUnknown || *update.TrustLevel > TrustVerified {
			return fmt.Errorf("invalid trust level %d", *update.TrustLevel)
		}
		sets = append(sets, "trust_level = ?")
		args = append(args, *update.TrustLevel)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(timestampLayout))
	args = append(args, phoneNumber)

	query := fmt.Sprintf("UPDATE contacts SET %s WHERE phone_number = ?", strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// scanContact reads a contact from a row selected with the canonical
// column order.
func scanContact(row *sql.Row) (*Contact, error) {
	var c Contact
	var name sql.NullString
	var relationship, createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.PhoneNumber, &name, &relationship, &c.TrustLevel, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning contact: %w", err)
	}

	c.Name = name.String
	c.Relationship = Relationship(relationship)

	if c.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &c, nil
}
