package pipeline

import (
	"context"

	"github.com/bayhub-app/deals/internal/source"
)

// Fetcher abstracts the upstream feed layer so the aggregator can be tested
// without network access.
type Fetcher interface {
	FetchAll(ctx context.Context) []source.Result
}
