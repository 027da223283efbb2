package service

import (
	"testing"

	"github.com/alamigestion/server/internal/domain"
)

// =============================================================================
// Quote Transition Table Tests
// =============================================================================

func allowsTransition(from, to domain.QuoteStatus) bool {
	for _, next := range quoteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func TestQuoteTransitions_AllowedMoves(t *testing.T) {
	allowed := []struct{ from, to domain.QuoteStatus }{
		{domain.QuoteDraft, domain.QuoteSent},
		{domain.QuoteDraft, domain.QuoteAccepted},
		{domain.QuoteSent, domain.QuoteAccepted},
	}

	for _, tc := range allowed {
		if !allowsTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}
}

func TestQuoteTransitions_TerminalStates(t *testing.T) {
	// EXPIRED and CONVERTED are set by the service, never by a client
	// status update, and nothing moves out of them.
	for _, terminal := range []domain.QuoteStatus{domain.QuoteExpired, domain.QuoteConverted} {
		if len(quoteTransitions[terminal]) != 0 {
			t.Errorf("%s should have no outgoing transitions", terminal)
		}
		for _, from := range []domain.QuoteStatus{domain.QuoteDraft, domain.QuoteSent, domain.QuoteAccepted} {
			if allowsTransition(from, terminal) {
				t.Errorf("%s -> %s should not be reachable through a status update", from, terminal)
			}
		}
	}
}

func TestQuoteTransitions_NoBackwardMoves(t *testing.T) {
	backward := []struct{ from, to domain.QuoteStatus }{
		{domain.QuoteSent, domain.QuoteDraft},
		{domain.QuoteAccepted, domain.QuoteDraft},
		{domain.QuoteAccepted, domain.QuoteSent},
	}

	for _, tc := range backward {
		if allowsTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be refused", tc.from, tc.to)
		}
	}
}
