package sheets

import (
	"context"

	"ledgerbot/internal/core"
)

// Ports for outbound adapters.
type (
	// RowAppender writes one transaction to an external sheet and returns a
	// reference to the written row.
	RowAppender interface {
		Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
