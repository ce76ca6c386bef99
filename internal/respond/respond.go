// ABOUTME: ResponseGenerator contract consumed by the conversation pipeline
// ABOUTME: Defines the Generator interface and the typed failure kinds

package respond

import (
	"context"
	"errors"
	"fmt"

	"github.com/2389/sms-gateway/internal/store"
)

// Kind classifies a generation failure. The pipeline branches on the
// kind when deciding to fall back to canned text.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindModel     Kind = "model"
)

// Error is a generation failure with its kind attached.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("responder %s: %v", e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError wraps cause with a failure kind.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

// KindOf extracts the failure kind from err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// Generator produces reply text and relationship labels. These are
// the only slow, network-bound calls in the pipeline; callers bound
// their latency with a context deadline.
type Generator interface {
	// GenerateReply returns reply text for the incoming message given
	// the contact and recent history (newest first, as the store
	// returns it). Failures carry a Kind.
	GenerateReply(ctx context.Context, contact *store.Contact, history []*store.Message, incoming string) (string, error)

	// ClassifyRelationship infers a relationship label from the
	// conversation. It returns one of the store.Relationship values;
	// unparseable model output is a KindModel failure.
	ClassifyRelationship(ctx context.Context, contact *store.Contact, history []*store.Message, incoming string) (store.Relationship, error)
}
