// ABOUTME: Prompt assembly for SMS reply generation and relationship classification
// ABOUTME: Renders contact context and recent history into model prompts

package respond

import (
	"fmt"
	"strings"

	"github.com/2389/sms-gateway/internal/store"
)

const replySystemPrompt = `You are an SMS response assistant. Your job is to generate appropriate text message responses based on:

1. The incoming message content
2. The conversation history with this contact
3. The relationship context (family, friend, work, unknown)
4. The trust level of the contact (0=unknown, 1=acquaintance, 2=trusted, 3=verified)

Guidelines:
- Keep responses concise and natural for SMS format (under 160 characters when possible)
- Match the tone and formality level of the conversation
- For unknown contacts (trust_level 0), be polite but cautious about sharing personal information
- For trusted contacts (trust_level 2+), you can be more casual and share appropriate personal updates
- If someone asks for personal information and they're not verified (trust_level < 3), politely decline
- Always be helpful and friendly
- Use natural language and avoid overly formal responses
- Don't use emojis unless the conversation style suggests they're appropriate

Respond with ONLY the SMS message text. Do not include any explanations, quotes, or formatting.`

// replyPrompt renders the user-turn prompt for reply generation.
func replyPrompt(contact *store.Contact, history []*store.Message, incoming string) string {
	name := contact.Name
	if name == "" {
		name = "Unknown"
	}

	return fmt.Sprintf(`Contact Information:
- Name: %s
- Phone: %s
- Relationship: %s
- Trust Level: %d/3

Recent Conversation:
%s

New Incoming Message: %q

Generate an appropriate SMS response:`,
		name, contact.PhoneNumber, contact.Relationship, contact.TrustLevel,
		conversationContext(contact, history), incoming)
}

// classifyPrompt renders the prompt for relationship classification.
func classifyPrompt(contact *store.Contact, history []*store.Message, incoming string) string {
	return fmt.Sprintf(`Based on this SMS conversation, classify the relationship between the user and this contact.

Conversation:
%s

Latest message: %q

Choose one: family, friend, work, unknown

Respond with only the single word classification.`,
		conversationContext(contact, history), incoming)
}

// conversationContext renders the last few messages chronologically.
// History arrives newest first, as the store returns it.
func conversationContext(contact *store.Contact, history []*store.Message) string {
	if len(history) == 0 {
		return "No previous conversation history."
	}

	recent := history
	if len(recent) > 5 {
		recent = recent[:5]
	}

	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		msg := recent[i]
		sender := "You"
		if msg.Direction == store.DirectionIncoming {
			sender = contact.Name
			if sender == "" {
				sender = "Them"
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", sender, msg.Text))
	}

	return strings.Join(lines, "\n")
}
