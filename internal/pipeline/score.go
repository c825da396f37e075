package pipeline

import (
	"time"

	"github.com/bayhub-app/deals/internal/config"
	"github.com/bayhub-app/deals/internal/models"
)

// Scorer assigns relevance scores. It is a pure function of (deal, now) and
// its configured weights: no side effects, no randomness, identical inputs
// give identical scores.
type Scorer struct {
	weights config.Weights
	trust   map[string]float64
}

func NewScorer(weights config.Weights, trust map[string]float64) *Scorer {
	return &Scorer{weights: weights, trust: trust}
}

// Score combines the signals by weighted sum, never multiplication, so one
// missing signal cannot zero out an otherwise strong deal.
func (s *Scorer) Score(deal *models.NormalizedDeal, now time.Time) float64 {
	w := s.weights
	score := w.Value * s.valueSignal(deal)
	score += w.Friction * s.frictionPenalty(deal)
	if deal.ExpiresWithin(now, w.UrgencyWindow) {
		score += w.Urgency
	}
	score += w.Trust * s.TrustWeight(deal.Source)
	score += w.CN * s.cnSignal(deal)
	return score
}

// TrustWeight returns the per-source multiplier; unknown sources score the
// forum-level floor rather than zero.
func (s *Scorer) TrustWeight(source string) float64 {
	if weight, ok := s.trust[source]; ok {
		return weight
	}
	return s.trust[config.SourceForum]
}

// valueSignal normalizes the dollar estimate into [0,1]. A missing value
// contributes the neutral baseline so unparsed deals are not punished.
func (s *Scorer) valueSignal(deal *models.NormalizedDeal) float64 {
	if deal.EstimatedValueUSD == nil {
		return s.weights.NeutralValue
	}
	v := *deal.EstimatedValueUSD / s.weights.ValueCeilingUSD
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// frictionPenalty is zero or negative. App requirements cost the most;
// subscriptions a smaller amount; in-store and online are neutral.
func (s *Scorer) frictionPenalty(deal *models.NormalizedDeal) float64 {
	penalty := 0.0
	if deal.RequiresApp == models.TriTrue {
		penalty -= s.weights.AppPenalty
	}
	if deal.RedemptionType == models.RedemptionSubscription {
		penalty -= s.weights.SubscriptionPenalty
	}
	return penalty
}

func (s *Scorer) cnSignal(deal *models.NormalizedDeal) float64 {
	if deal.CNScore == nil {
		return s.weights.NeutralCN
	}
	return *deal.CNScore
}
