package pipeline

import (
	"testing"
	"time"

	"github.com/bayhub-app/deals/internal/config"
	"github.com/bayhub-app/deals/internal/models"
)

func newTestScorer() *Scorer {
	return NewScorer(config.DefaultWeights(), config.DefaultTrustWeights())
}

func TestScoreDeterministic(t *testing.T) {
	s := newTestScorer()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	value := 25.0
	cn := 0.9
	expiry := now.Add(24 * time.Hour)
	d := deal("Deterministic", "food")
	d.EstimatedValueUSD = &value
	d.CNScore = &cn
	d.ExpiryDate = &expiry
	d.RequiresApp = models.TriTrue

	first := s.Score(&d, now)
	for i := 0; i < 10; i++ {
		if got := s.Score(&d, now); got != first {
			t.Fatalf("Score() not deterministic: %v vs %v", got, first)
		}
	}
}

func TestScoreMissingValueIsNeutralNotZero(t *testing.T) {
	s := newTestScorer()
	now := time.Now()

	noValue := deal("No value", "food")
	zeroValue := deal("Zero value", "food")
	zero := 0.0
	zeroValue.EstimatedValueUSD = &zero

	if s.Score(&noValue, now) <= s.Score(&zeroValue, now) {
		t.Error("missing value should score the neutral baseline, above an explicit $0")
	}
}

func TestScoreFrictionPenalties(t *testing.T) {
	s := newTestScorer()
	now := time.Now()

	neutral := deal("Neutral", "food")
	neutral.RedemptionType = models.RedemptionInStore

	appDeal := deal("App required", "food")
	appDeal.RequiresApp = models.TriTrue

	subDeal := deal("Subscription", "food")
	subDeal.RedemptionType = models.RedemptionSubscription

	neutralScore := s.Score(&neutral, now)
	appScore := s.Score(&appDeal, now)
	subScore := s.Score(&subDeal, now)

	if appScore >= neutralScore {
		t.Errorf("app requirement must be penalized: %v >= %v", appScore, neutralScore)
	}
	if subScore >= neutralScore {
		t.Errorf("subscription must be penalized: %v >= %v", subScore, neutralScore)
	}
	if appScore >= subScore {
		t.Errorf("app penalty must exceed subscription penalty: %v >= %v", appScore, subScore)
	}
}

func TestScoreUrgencyBonus(t *testing.T) {
	s := newTestScorer()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiry    time.Duration
		wantBonus bool
	}{
		{name: "One second in the future", expiry: time.Second, wantBonus: true},
		{name: "Within 48 hours", expiry: 47 * time.Hour, wantBonus: true},
		{name: "Exactly 48 hours", expiry: 48 * time.Hour, wantBonus: true},
		{name: "Beyond 48 hours", expiry: 72 * time.Hour, wantBonus: false},
	}

	baseline := deal("No expiry", "food")
	baselineScore := s.Score(&baseline, now)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := deal("Urgent", "food")
			expiry := now.Add(tt.expiry)
			d.ExpiryDate = &expiry
			got := s.Score(&d, now)
			if tt.wantBonus && got <= baselineScore {
				t.Errorf("expected urgency bonus: %v <= %v", got, baselineScore)
			}
			if !tt.wantBonus && got != baselineScore {
				t.Errorf("no bonus expected: %v != %v", got, baselineScore)
			}
		})
	}
}

func TestScoreTrustWeighting(t *testing.T) {
	s := newTestScorer()
	now := time.Now()

	curated := deal("Same deal", config.SourceFood)
	community := deal("Same deal", config.SourceForum)

	if s.Score(&curated, now) <= s.Score(&community, now) {
		t.Error("curated source should outscore the community feed on identical content")
	}

	// Unknown sources fall back to the forum-level floor, not zero.
	unknown := deal("Same deal", "chainA")
	if got, want := s.Score(&unknown, now), s.Score(&community, now); got != want {
		t.Errorf("unknown source score = %v, want forum floor %v", got, want)
	}
}

func TestScoreCNSignal(t *testing.T) {
	s := newTestScorer()
	now := time.Now()

	high := deal("CN high", "food")
	cnHigh := 1.0
	high.CNScore = &cnHigh

	absent := deal("CN absent", "food")

	low := deal("CN low", "food")
	cnLow := 0.0
	low.CNScore = &cnLow

	if s.Score(&high, now) <= s.Score(&absent, now) {
		t.Error("present high CN score should beat the neutral baseline")
	}
	if s.Score(&absent, now) <= s.Score(&low, now) {
		t.Error("absent CN score is neutral, above an explicit zero")
	}
}

func TestScoreWeightedSumNotMultiplicative(t *testing.T) {
	// A deal missing every optional signal still lands a positive score: the
	// sum of neutral baselines and trust weight.
	s := newTestScorer()
	bare := deal("Bare", "forum")
	if got := s.Score(&bare, time.Now()); got <= 0 {
		t.Errorf("bare deal score = %v, want > 0", got)
	}
}
