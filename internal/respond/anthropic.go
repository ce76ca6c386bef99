// ABOUTME: Anthropic-backed implementation of the Generator interface
// ABOUTME: Single blocking Messages.New calls, no streaming surface

package respond

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/2389/sms-gateway/internal/store"
)

// DefaultModel is used when the config does not name one.
const DefaultModel = anthropic.ModelClaude3_5SonnetLatest

// Claude implements Generator using the Anthropic API.
type Claude struct {
	client *anthropic.Client
	model  anthropic.Model
	logger *slog.Logger
}

// NewClaude builds a Claude generator. The API key comes from the
// environment (ANTHROPIC_API_KEY), which is how the SDK client reads
// it. An empty model selects DefaultModel.
func NewClaude(model string) *Claude {
	c := anthropic.NewClient()

	m := anthropic.Model(model)
	if model == "" {
		m = DefaultModel
	}

	return &Claude{
		client: &c,
		model:  m,
		logger: slog.Default().With("component", "respond"),
	}
}

// GenerateReply asks the model for reply text.
func (c *Claude) GenerateReply(ctx context.Context, contact *store.Contact, history []*store.Message, incoming string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: replySystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(replyPrompt(contact, history, incoming))),
		},
	})
	if err != nil {
		return "", classifyErr(ctx, err)
	}

	text := firstText(msg)
	if text == "" {
		return "", NewError(KindModel, errors.New("response contained no text block"))
	}

	return text, nil
}

// ClassifyRelationship asks the model for a one-word relationship label.
func (c *Claude) ClassifyRelationship(ctx context.Context, contact *store.Contact, history []*store.Message, incoming string) (store.Relationship, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(classifyPrompt(contact, history, incoming))),
		},
	})
	if err != nil {
		return "", classifyErr(ctx, err)
	}

	label := store.Relationship(strings.ToLower(strings.TrimSpace(firstText(msg))))
	if !label.Valid() {
		return "", NewError(KindModel, fmt.Errorf("unrecognized relationship label %q", label))
	}

	return label, nil
}

// firstText returns the first text block of a response, trimmed.
func firstText(msg *anthropic.Message) string {
	for _, block := range msg.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			return strings.TrimSpace(text.Text)
		}
	}
	return ""
}

// classifyErr maps transport-level failures onto failure kinds. A
// context deadline counts as a timeout; everything else the SDK
// surfaces is a transport failure.
func classifyErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewError(KindTimeout, err)
	}
	return NewError(KindTransport, err)
}
