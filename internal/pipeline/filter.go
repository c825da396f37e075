package pipeline

import (
	"time"

	"github.com/bayhub-app/deals/internal/models"
	"github.com/bayhub-app/deals/internal/util"
)

// Filter drops definitely-invalid or definitely-expired deals: expiry strictly
// in the past, both display strings empty after trimming, or a URL that is not
// an absolute http(s) URL. Relevance judgment belongs to the scorer; nothing
// else is dropped here. Returns the survivors and the number dropped.
func Filter(deals []models.NormalizedDeal, now time.Time) ([]models.NormalizedDeal, int) {
	out := make([]models.NormalizedDeal, 0, len(deals))
	dropped := 0
	for _, deal := range deals {
		if deal.Expired(now) {
			dropped++
			continue
		}
		if util.CollapseWhitespace(deal.Title) == "" && util.CollapseWhitespace(deal.Description) == "" {
			dropped++
			continue
		}
		if !util.IsAbsoluteURL(deal.URL) {
			dropped++
			continue
		}
		out = append(out, deal)
	}
	return out, dropped
}
