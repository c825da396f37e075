package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Source identifiers, also used as dedup grouping tags and trust-table keys.
const (
	SourceFood    = "food"
	SourceCoupons = "coupons"
	SourceForum   = "forum"
)

// Weights holds every tunable scoring knob. Changing relevance behavior means
// changing these values, never the scorer's shape.
type Weights struct {
	Value    float64 // weight on the normalized dollar-value signal
	Friction float64 // weight on redemption friction penalties
	Urgency  float64 // bonus weight for deals expiring within UrgencyWindow
	Trust    float64 // weight on the per-source trust multiplier
	CN       float64 // weight on the Chinese-friendliness signal

	AppPenalty          float64 // subtracted when requires_app is true
	SubscriptionPenalty float64 // subtracted for subscription redemption

	// Neutral baselines used when a signal is absent, so missing data never
	// zeroes out an otherwise strong deal.
	NeutralValue float64
	NeutralCN    float64

	// ValueCeilingUSD is the dollar amount that maps to a full value signal.
	ValueCeilingUSD float64

	UrgencyWindow time.Duration
}

// DefaultWeights returns the scoring defaults.
func DefaultWeights() Weights {
	return Weights{
		Value:    0.35,
		Friction: 1.0,
		Urgency:  0.15,
		Trust:    0.3,
		CN:       0.2,

		AppPenalty:          0.15,
		SubscriptionPenalty: 0.08,

		NeutralValue: 0.5,
		NeutralCN:    0.5,

		ValueCeilingUSD: 50,
		UrgencyWindow:   48 * time.Hour,
	}
}

// DefaultTrustWeights returns the per-source trust multipliers. The forum feed
// is community-sourced and weighted below the curated feeds.
func DefaultTrustWeights() map[string]float64 {
	return map[string]float64{
		SourceFood:    1.0,
		SourceCoupons: 0.9,
		SourceForum:   0.75,
	}
}

type Config struct {
	Port string

	FoodFeedURL    string
	CouponFeedURL  string
	ForumFeedURL   string
	SourceTimeout  time.Duration
	SourceRetries  int
	SourcePriority []string

	DisplayCap    int
	TopCount      int
	FallbackLimit int

	MetadataTTL         time.Duration
	MetadataNegativeTTL time.Duration
	MetadataRatePerSec  float64

	GeminiAPIKey string
	GeminiModel  string

	Weights      Weights
	TrustWeights map[string]float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          envOr("PORT", "8080"),
		FoodFeedURL:   os.Getenv("FOOD_FEED_URL"),
		CouponFeedURL: os.Getenv("COUPON_FEED_URL"),
		ForumFeedURL:  os.Getenv("FORUM_FEED_URL"),

		// Declared merge order: deterministic dedup outcomes depend on it.
		SourcePriority: []string{SourceFood, SourceCoupons, SourceForum},

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.0-flash"),

		Weights:      DefaultWeights(),
		TrustWeights: DefaultTrustWeights(),
	}

	if cfg.FoodFeedURL == "" && cfg.CouponFeedURL == "" && cfg.ForumFeedURL == "" {
		slog.Warn("No feed URLs configured; every aggregation cycle will degrade to the fallback shelf")
	}
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, title cleanup will be skipped")
	}

	var err error
	if cfg.SourceTimeout, err = envDuration("SOURCE_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.MetadataTTL, err = envDuration("METADATA_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MetadataNegativeTTL, err = envDuration("METADATA_NEGATIVE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SourceRetries, err = envInt("SOURCE_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.DisplayCap, err = envInt("DISPLAY_CAP", 12); err != nil {
		return nil, err
	}
	if cfg.TopCount, err = envInt("TOP_COUNT", 3); err != nil {
		return nil, err
	}
	if cfg.FallbackLimit, err = envInt("FALLBACK_LIMIT", 6); err != nil {
		return nil, err
	}
	if cfg.MetadataRatePerSec, err = envFloat("METADATA_RATE_PER_SEC", 4); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}
