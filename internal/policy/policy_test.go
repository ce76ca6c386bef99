// ABOUTME: Tests for the auto-reply eligibility policy
// ABOUTME: Covers each rule, rule precedence, and determinism

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389/sms-gateway/internal/store"
)

func knownContact(trust int, rel store.Relationship) *store.Contact {
	return &store.Contact{
		ID:           "contact-1",
		PhoneNumber:  "+15550001111",
		Relationship: rel,
		TrustLevel:   trust,
	}
}

func TestEvaluate_Rules(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		contact   *store.Contact
		autoReply bool
		reason    Reason
	}{
		{
			name:      "message shorter than three characters",
			text:      "Hi",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: false,
			reason:    ReasonTooShort,
		},
		{
			name:      "whitespace padding does not rescue a short message",
			text:      "  ok   ",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: false,
			reason:    ReasonTooShort,
		},
		{
			name:      "single emoji counts as one character",
			text:      "👍",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: false,
			reason:    ReasonTooShort,
		},
		{
			name:      "two CJK characters are still too short",
			text:      "日本",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: false,
			reason:    ReasonTooShort,
		},
		{
			name:      "three CJK characters clear the length rule",
			text:      "日本語",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: true,
			reason:    ReasonEligible,
		},
		{
			name:      "unknown sender is withheld",
			text:      "hello there",
			contact:   knownContact(store.TrustUnknown, store.RelationshipUnknown),
			autoReply: false,
			reason:    ReasonUnknownSender,
		},
		{
			name:      "known relationship overrides zero trust",
			text:      "hello there",
			contact:   knownContact(store.TrustUnknown, store.RelationshipFriend),
			autoReply: true,
			reason:    ReasonEligible,
		},
		{
			name:      "urgent keyword routes to human at any trust level",
			text:      "please help urgent!!",
			contact:   knownContact(store.TrustVerified, store.RelationshipFamily),
			autoReply: false,
			reason:    ReasonUrgent,
		},
		{
			name:      "urgent match is case-insensitive",
			text:      "This is URGENT",
			contact:   knownContact(store.TrustTrusted, store.RelationshipWork),
			autoReply: false,
			reason:    ReasonUrgent,
		},
		{
			name:      "multi-word urgent phrase",
			text:      "can you call me tonight",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: false,
			reason:    ReasonUrgent,
		},
		{
			name:      "sensitive keyword routes to human",
			text:      "what's your bank account",
			contact:   knownContact(store.TrustVerified, store.RelationshipFamily),
			autoReply: false,
			reason:    ReasonSensitive,
		},
		{
			name:      "urgent wins when both urgent and sensitive match",
			text:      "urgent: i need your password",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: false,
			reason:    ReasonUrgent,
		},
		{
			name:      "short-message rule outranks keyword rules",
			text:      "no",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: false,
			reason:    ReasonTooShort,
		},
		{
			name:      "casual message from trusted contact is eligible",
			text:      "see you soon",
			contact:   knownContact(store.TrustTrusted, store.RelationshipFriend),
			autoReply: true,
			reason:    ReasonEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Evaluate(tt.text, tt.contact, nil)
			assert.Equal(t, tt.autoReply, decision.AutoReply)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	contact := knownContact(store.TrustTrusted, store.RelationshipFriend)

	first := Evaluate("want to grab lunch?", contact, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate("want to grab lunch?", contact, nil))
	}
}
