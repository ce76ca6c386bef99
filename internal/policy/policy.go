// ABOUTME: Deterministic auto-reply eligibility policy
// ABOUTME: Pure rule evaluation over the incoming text and contact context

package policy

import (
	"strings"
	"unicode/utf8"

	"github.com/2389/sms-gateway/internal/store"
)

// Reason explains why the policy reached its decision.
type Reason string

const (
	ReasonTooShort      Reason = "too_short"
	ReasonUnknownSender Reason = "unknown_sender"
	ReasonUrgent        Reason = "urgent"
	ReasonSensitive     Reason = "sensitive"
	ReasonEligible      Reason = "eligible"
)

// Decision is the outcome of evaluating an incoming message.
type Decision struct {
	AutoReply bool
	Reason    Reason
}

// urgentKeywords route a message to a human rather than the responder.
var urgentKeywords = []string{
	"urgent", "emergency", "important", "asap", "help", "call me",
	"need you", "problem", "issue", "trouble", "hospital", "accident",
}

// sensitiveKeywords cover requests for personal or financial details.
var sensitiveKeywords = []string{
	"password", "ssn", "social security", "bank", "credit card",
	"pin", "address", "personal", "private",
}

// Evaluate decides whether an incoming message is eligible for an
// automated reply. Rules are checked in strict precedence order and
// the first match wins:
//
//  1. Very short messages (under 3 characters after trimming) are
//     likely accidental taps.
//  2. Fully unknown senders (trust level 0, relationship unknown)
//     get no automated reply.
//  3. Urgent keywords route to a human.
//  4. Sensitive-information keywords route to a human.
//  5. Everything else is eligible.
//
// Evaluate has no side effects; identical inputs always yield the
// same decision.
func Evaluate(incomingText string, contact *store.Contact, history []*store.Message) Decision {
	text := strings.ToLower(strings.TrimSpace(incomingText))

	// Counted in runes so a lone emoji or two CJK characters still
	// read as a short message.
	if utf8.RuneCountInString(text) < 3 {
		return Decision{AutoReply: false, Reason: ReasonTooShort}
	}

	if contact.TrustLevel == store.TrustUnknown && contact.Relationship == store.RelationshipUnknown {
		return Decision{AutoReply: false, Reason: ReasonUnknownSender}
	}

	if containsAny(text, urgentKeywords) {
		return Decision{AutoReply: false, Reason: ReasonUrgent}
	}

	if containsAny(text, sensitiveKeywords) {
		return Decision{AutoReply: false, Reason: ReasonSensitive}
	}

	return Decision{AutoReply: true, Reason: ReasonEligible}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
