// Package export defines the outbound port for mirroring transactions to an
// external ledger, plus adapters under export/google and export/memory.
package export

import (
	"context"

	"moneta/internal/core"
)

// TransactionAppender mirrors a transaction to an external ledger.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
