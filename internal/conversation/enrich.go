// ABOUTME: Best-effort background relationship classification
// ABOUTME: Runs after the primary path and never affects the reply already sent

package conversation

import (
	"context"

	"github.com/2389/sms-gateway/internal/store"
)

// minEnrichmentHistory is how many messages a conversation needs
// before classification is attempted.
const minEnrichmentHistory = 3

// scheduleEnrichment kicks off classification in the background.
// The goroutine gets a fresh context: no cancellation propagates into
// it once the primary path has returned.
func (s *Service) scheduleEnrichment(contact *store.Contact, history []*store.Message, incoming string) {
	if contact.Relationship != store.RelationshipUnknown || len(history) < minEnrichmentHistory {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.enrichContact(context.Background(), contact, history, incoming)
	}()
}

// enrichContact classifies the relationship and persists the label if
// it is informative. Every failure here is logged and swallowed.
func (s *Service) enrichContact(ctx context.Context, contact *store.Contact, history []*store.Message, incoming string) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	label, err := s.generator.ClassifyRelationship(cctx, contact, history, incoming)
	if err != nil {
		s.logger.Warn("relationship classification failed",
			"phone", contact.PhoneNumber,
			"error", err)
		return
	}

	if label == store.RelationshipUnknown {
		return
	}

	// The contact may have been updated while classification ran;
	// a relationship that is already known is never overwritten.
	current, err := s.store.GetContact(ctx, contact.PhoneNumber)
	if err != nil {
		s.logger.Warn("enrichment re-read failed",
			"phone", contact.PhoneNumber,
			"error", err)
		return
	}
	if current.Relationship != store.RelationshipUnknown {
		return
	}

	if err := s.store.UpdateContact(ctx, contact.PhoneNumber, store.ContactUpdate{Relationship: &label}); err != nil {
		s.logger.Warn("saving classified relationship failed",
			"phone", contact.PhoneNumber,
			"error", err)
		return
	}

	s.logger.Info("relationship classified",
		"phone", contact.PhoneNumber,
		"relationship", label)
}
