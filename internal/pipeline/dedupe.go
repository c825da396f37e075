package pipeline

import (
	"strings"

	"github.com/bayhub-app/deals/internal/models"
	"github.com/bayhub-app/deals/internal/util"
)

// DedupeKey is the grouping key for duplicate detection: lower-cased,
// whitespace-collapsed title plus source. Two sources reporting the "same"
// deal under different titles are intentionally distinct; cross-source fuzzy
// title matching is out of scope, a documented limitation.
func DedupeKey(deal *models.NormalizedDeal) string {
	return strings.ToLower(util.CollapseWhitespace(deal.Title)) + "|" + deal.Source
}

// Dedupe collapses records that collide on DedupeKey, keeping one per group.
// Input order must already be deterministic (source-priority order, then feed
// order); given that, the output is deterministic too: the first-seen record
// wins unless a later duplicate is strictly richer.
func Dedupe(deals []models.NormalizedDeal) []models.NormalizedDeal {
	byKey := make(map[string]int, len(deals))
	out := make([]models.NormalizedDeal, 0, len(deals))

	for _, deal := range deals {
		key := DedupeKey(&deal)
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(out)
			out = append(out, deal)
			continue
		}
		if richness(&deal) > richness(&out[idx]) {
			// Keep the earlier record's slot so merged output preserves
			// first-seen ordering.
			out[idx] = deal
		}
	}
	return out
}

// richness ranks how complete a record is for merge decisions: a parsed
// dollar value and an image each count. Ties keep the first-seen record.
func richness(deal *models.NormalizedDeal) int {
	score := 0
	if deal.EstimatedValueUSD != nil {
		score++
	}
	if deal.ImageURL != "" {
		score++
	}
	return score
}
