package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bayhub-app/deals/internal/models"
	"github.com/bayhub-app/deals/internal/util"
)

// categoryRule maps keyword hits in title+description to a category and,
// optionally, redemption hints. Rules are evaluated in order and the first
// category match wins; the BOGO rule deliberately precedes the app rule.
type categoryRule struct {
	keywords   []string
	category   models.Category
	redemption models.RedemptionType
}

var categoryRules = []categoryRule{
	{keywords: []string{"bogo", "buy one get one"}, category: models.CategoryFoodFast},
	{keywords: []string{"checking bonus", "savings account", "direct deposit", "bank bonus"}, category: models.CategoryBank},
	{keywords: []string{"credit card", "cashback", "cash back", "points offer"}, category: models.CategoryCard},
	{keywords: []string{"brokerage", "stock transfer", "free stock"}, category: models.CategoryBrokerage},
	{keywords: []string{"insurance", "mobile plan", "internet plan"}, category: models.CategoryLife},
	{keywords: []string{"grocery", "family pack", "household"}, category: models.CategoryRetailFamily},
}

// Normalizer converts raw records into canonical deals. It is stateless; the
// same input always yields the same output.
type Normalizer struct {
	validate StructValidator
}

// StructValidator is satisfied by the validator wrapper.
type StructValidator interface {
	ValidateStruct(s interface{}) error
}

func NewNormalizer(v StructValidator) *Normalizer {
	return &Normalizer{validate: v}
}

// Normalize produces one canonical deal from a raw record, or
// models.ErrInvalidDeal when the record has no usable title/description or no
// resolvable URL. A malformed record is the caller's skip, never its failure.
func (n *Normalizer) Normalize(rec models.RawDealRecord) (*models.NormalizedDeal, error) {
	title := util.CollapseWhitespace(rec.Title)
	description := util.CollapseWhitespace(rec.Description)
	if title == "" && description == "" {
		return nil, fmt.Errorf("%w: no title or description", models.ErrInvalidDeal)
	}

	rawURL := strings.TrimSpace(rec.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("%w: no url", models.ErrInvalidDeal)
	}
	canonicalURL, err := util.NormalizeURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable url %q", models.ErrInvalidDeal, rawURL)
	}

	deal := &models.NormalizedDeal{
		ID:             dealID(rec),
		Title:          title,
		Description:    description,
		URL:            canonicalURL,
		Source:         rec.Source,
		Category:       models.CategoryOther,
		RedemptionType: models.RedemptionUnknown,
		RequiresApp:    models.TriUnknown,
		ImageURL:       strings.TrimSpace(rec.ImageURL),
		CNScore:        rec.CNScore,
		Provenance: models.Provenance{
			Source:    rec.Source,
			SourceID:  rec.SourceID,
			FeedIndex: rec.FeedIndex,
		},
	}

	n.deriveCategory(deal, rec)
	n.deriveValue(deal, rec)

	// Unparsable expiry dates become nil: "no known expiry", never an error.
	deal.ExpiryDate = util.ParseDate(rec.Expiry)

	if n.validate != nil {
		if err := n.validate.ValidateStruct(deal); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidDeal, err)
		}
	}
	return deal, nil
}

// deriveCategory applies the keyword heuristics over title+description.
// The vocabulary is heuristic and preserved as-is: "app" inside a longer word
// can misfire, and that behavior is intentional.
func (n *Normalizer) deriveCategory(deal *models.NormalizedDeal, rec models.RawDealRecord) {
	haystack := strings.ToLower(deal.Title + " " + deal.Description)

ruleLoop:
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				deal.Category = rule.category
				if rule.redemption != "" {
					deal.RedemptionType = rule.redemption
				}
				break ruleLoop
			}
		}
	}

	// "clip" coupons and explicit codes mark online retail redemption.
	if strings.Contains(haystack, "clip") || rec.Code != "" {
		if deal.Category == models.CategoryOther {
			deal.Category = models.CategoryRetailFamily
		}
		deal.RedemptionType = models.RedemptionOnline
	}

	switch {
	case strings.Contains(haystack, "subscription") || strings.Contains(haystack, "subscribe"):
		deal.RedemptionType = models.RedemptionSubscription
	case strings.Contains(haystack, "in-store") || strings.Contains(haystack, "in store"):
		deal.RedemptionType = models.RedemptionInStore
	}

	// App detection runs after BOGO categorization, per the tie-break order.
	if strings.Contains(haystack, "app") {
		deal.RequiresApp = models.TriTrue
		if deal.RedemptionType == models.RedemptionUnknown {
			deal.RedemptionType = models.RedemptionApp
		}
	}
}

// deriveValue fills at most one authoritative value field: the numeric USD
// estimate when derivable, otherwise the display text. "$8 off" stays text,
// no guessing.
func (n *Normalizer) deriveValue(deal *models.NormalizedDeal, rec models.RawDealRecord) {
	if rec.ValueUSD != nil {
		v := *rec.ValueUSD
		deal.EstimatedValueUSD = &v
		return
	}
	text := util.CollapseWhitespace(rec.ValueText)
	if text == "" {
		return
	}
	if v, ok := util.ParseMoney(text); ok {
		deal.EstimatedValueUSD = &v
		return
	}
	deal.PriceOrValueText = text
}

// dealID derives a stable identifier from source plus source-native id,
// falling back to a content hash when the feed carries no id.
func dealID(rec models.RawDealRecord) string {
	if rec.SourceID != "" {
		return rec.Source + ":" + rec.SourceID
	}
	hash := sha256.Sum256([]byte(rec.Source + "|" + rec.Title + "|" + rec.URL))
	return rec.Source + ":" + hex.EncodeToString(hash[:8])
}
