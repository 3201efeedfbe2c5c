package driving

import (
	"context"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// EntryService records and queries pipeline audit entries.
type EntryService interface {
	// Store writes a new entry and returns its generated id.
	// The primary record is written before any index membership.
	Store(ctx context.Context, input domain.EntryInput) (string, error)

	// Get retrieves an entry by id.
	// Returns domain.ErrNotFound if the entry is missing or expired.
	Get(ctx context.Context, id string) (*domain.Entry, error)

	// ListByThread returns entries tagged with threadID, oldest first.
	ListByThread(ctx context.Context, threadID string) ([]domain.Entry, error)

	// ListByConversation returns entries tagged with conversationID, oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Entry, error)

	// ListByType returns entries of a document format, newest first.
	ListByType(ctx context.Context, format domain.DocumentFormat) ([]domain.Entry, error)

	// ListByIntent returns entries of an intent, newest first.
	ListByIntent(ctx context.Context, intent domain.Intent) ([]domain.Entry, error)

	// ListRecent returns up to limit entries across the store, newest first.
	// A limit of zero or less returns every entry.
	ListRecent(ctx context.Context, limit int) ([]domain.Entry, error)

	// Reconcile repairs secondary indices against the live primary records.
	Reconcile(ctx context.Context) (domain.SweepReport, error)
}
