package pipeline

import (
	"sort"
	"time"

	"github.com/bayhub-app/deals/internal/models"
)

// Rank sorts scored deals descending by score, flags the top tier, and
// truncates to the display cap. Ties break by source trust weight, then
// insertion order, so repeated runs over identical input produce identical
// order. IsTop3 flags come from the post-sort head, assigned before the cap
// is applied.
func (s *Scorer) Rank(deals []models.NormalizedDeal, now time.Time, topCount, displayCap int) []models.ScoredDeal {
	scored := make([]models.ScoredDeal, 0, len(deals))
	for _, deal := range deals {
		scored = append(scored, models.ScoredDeal{
			NormalizedDeal: deal,
			Score:          s.Score(&deal, now),
			LimitedTime:    deal.ExpiresWithin(now, s.weights.UrgencyWindow),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return s.TrustWeight(scored[i].Source) > s.TrustWeight(scored[j].Source)
	})

	for i := 0; i < len(scored) && i < topCount; i++ {
		scored[i].IsTop3 = true
	}

	if displayCap > 0 && len(scored) > displayCap {
		scored = scored[:displayCap]
	}
	return scored
}
