package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/bayhub-app/deals/internal/config"
	"github.com/bayhub-app/deals/internal/models"
)

// Outcome is the best-effort result of one aggregation cycle. It is the only
// value ever returned to the caller: possibly empty, possibly a fallback,
// never an error under normal operation.
type Outcome struct {
	Deals    []models.ScoredDeal `json:"deals"`
	Fallback bool                `json:"fallback"`

	// Observability tallies; absorbed failures are counted, not escalated.
	FailedSources  []string `json:"failed_sources,omitempty"`
	SkippedRecords int      `json:"skipped_records"`
	DroppedRecords int      `json:"dropped_records"`
}

// Aggregator runs the full cycle: fan-out fetch, normalize, dedupe, filter,
// score, rank, and the documented empty-pool fallback.
type Aggregator struct {
	fetcher    Fetcher
	normalizer *Normalizer
	scorer     *Scorer
	cfg        *config.Config
}

func NewAggregator(f Fetcher, n *Normalizer, s *Scorer, cfg *config.Config) *Aggregator {
	return &Aggregator{fetcher: f, normalizer: n, scorer: s, cfg: cfg}
}

// Aggregate fetches every source and ranks the merged result. Per-source and
// per-record failures degrade, they never abort the cycle.
func (a *Aggregator) Aggregate(ctx context.Context, now time.Time) Outcome {
	results := a.fetcher.FetchAll(ctx)

	var records []models.RawDealRecord
	var failed []string
	skipped := 0
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Source)
			continue
		}
		records = append(records, res.Records...)
		skipped += res.Skipped
	}

	outcome := a.Process(records, now)
	outcome.FailedSources = failed
	outcome.SkippedRecords += skipped

	slog.Info("Aggregation cycle finished",
		"deals", len(outcome.Deals),
		"fallback", outcome.Fallback,
		"failed_sources", len(failed),
		"skipped", outcome.SkippedRecords,
		"dropped", outcome.DroppedRecords)
	return outcome
}

// Process is the synchronous core over already-fetched records. Input must be
// in source-priority order with feed order preserved within a source; given
// that, the output is deterministic for a fixed now.
func (a *Aggregator) Process(records []models.RawDealRecord, now time.Time) Outcome {
	var outcome Outcome

	normalized := make([]models.NormalizedDeal, 0, len(records))
	for _, rec := range records {
		deal, err := a.normalizer.Normalize(rec)
		if err != nil {
			outcome.SkippedRecords++
			continue
		}
		normalized = append(normalized, *deal)
	}

	deduped := Dedupe(normalized)
	filtered, dropped := Filter(deduped, now)
	outcome.DroppedRecords = dropped

	if len(filtered) == 0 {
		// Documented fallback: a bounded slice of unfiltered records instead
		// of an empty shelf. Unscored and unflagged so the UI can tell.
		outcome.Fallback = true
		outcome.Deals = fallbackDeals(deduped, a.cfg.FallbackLimit)
		return outcome
	}

	outcome.Deals = a.scorer.Rank(filtered, now, a.cfg.TopCount, a.cfg.DisplayCap)
	return outcome
}

func fallbackDeals(deals []models.NormalizedDeal, limit int) []models.ScoredDeal {
	if len(deals) > limit {
		deals = deals[:limit]
	}
	out := make([]models.ScoredDeal, 0, len(deals))
	for _, deal := range deals {
		out = append(out, models.ScoredDeal{NormalizedDeal: deal})
	}
	return out
}
