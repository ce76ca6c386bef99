// ABOUTME: Tests for failure kinds and prompt assembly
// ABOUTME: The Anthropic client itself is exercised only through its interface

package respond

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sms-gateway/internal/store"
)

func TestKindOf(t *testing.T) {
	err := NewError(KindTimeout, errors.New("deadline exceeded"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, kind)

	// Wrapping preserves the kind
	wrapped := fmt.Errorf("generating reply: %w", err)
	kind, ok = KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(KindTransport, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transport")
}

func TestConversationContext_ChronologicalOrder(t *testing.T) {
	contact := &store.Contact{PhoneNumber: "+15550001111", Name: "Maya"}

	// Newest first, as the store returns history
	history := []*store.Message{
		{Text: "third", Direction: store.DirectionIncoming},
		{Text: "second", Direction: store.DirectionOutgoing},
		{Text: "first", Direction: store.DirectionIncoming},
	}

	got := conversationContext(contact, history)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Maya: first", lines[0])
	assert.Equal(t, "You: second", lines[1])
	assert.Equal(t, "Maya: third", lines[2])
}

func TestConversationContext_Empty(t *testing.T) {
	contact := &store.Contact{PhoneNumber: "+15550001111"}
	assert.Equal(t, "No previous conversation history.", conversationContext(contact, nil))
}

func TestConversationContext_WindowsToFive(t *testing.T) {
	contact := &store.Contact{PhoneNumber: "+15550001111"}

	var history []*store.Message
	for i := 8; i >= 1; i-- {
		history = append(history, &store.Message{
			Text:      fmt.Sprintf("message %d", i),
			Direction: store.DirectionIncoming,
		})
	}

	got := conversationContext(contact, history)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 5)
	// The five newest, oldest of them first
	assert.Equal(t, "Them: message 4", lines[0])
	assert.Equal(t, "Them: message 8", lines[4])
}

func TestReplyPrompt_IncludesContactContext(t *testing.T) {
	contact := &store.Contact{
		PhoneNumber:  "+15550001111",
		Relationship: store.RelationshipFriend,
		TrustLevel:   store.TrustTrusted,
	}

	prompt := replyPrompt(contact, nil, "want to grab lunch?")
	assert.Contains(t, prompt, "Name: Unknown")
	assert.Contains(t, prompt, "Relationship: friend")
	assert.Contains(t, prompt, "Trust Level: 2/3")
	assert.Contains(t, prompt, `"want to grab lunch?"`)
}

func TestClassifyPrompt_ListsLabels(t *testing.T) {
	contact := &store.Contact{PhoneNumber: "+15550001111"}

	prompt := classifyPrompt(contact, nil, "see you at the office")
	assert.Contains(t, prompt, "family, friend, work, unknown")
	assert.Contains(t, prompt, `"see you at the office"`)
}
