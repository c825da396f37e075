package source

import (
	"encoding/json"
	"strings"

	"github.com/bayhub-app/deals/internal/config"
	"github.com/bayhub-app/deals/internal/models"
)

// fieldAliases maps a canonical field to the names a feed may use for it.
// Adapters resolve aliases in order, first match wins. Downstream stages never
// see source-specific field names.
type fieldAliases struct {
	ID          []string
	Source      []string
	Title       []string
	Description []string
	URL         []string
	Image       []string
	Code        []string
	Value       []string
	Expiry      []string
	CNScore     []string
}

// Adapter maps one upstream feed's raw JSON shape into RawDealRecords.
type Adapter struct {
	Source string
	// envelopeKeys are tried in order to unwrap {"items": [...]}-style
	// responses; a bare top-level array is also accepted.
	envelopeKeys []string
	fields       fieldAliases
}

// FoodAdapter handles the restaurant/food deal feed.
func FoodAdapter() *Adapter {
	return &Adapter{
		Source:       config.SourceFood,
		envelopeKeys: []string{"items", "deals"},
		fields: fieldAliases{
			ID:          []string{"id", "deal_id"},
			Source:      []string{"source", "domain", "merchant"},
			Title:       []string{"title", "name"},
			Description: []string{"description", "details"},
			URL:         []string{"link", "url"},
			Image:       []string{"photo_url", "image_url"},
			Value:       []string{"value", "discount_value"},
			Expiry:      []string{"expiry", "valid_until"},
			CNScore:     []string{"cn_score", "chinese_friendliness"},
		},
	}
}

// CouponAdapter handles the retail coupon feed.
func CouponAdapter() *Adapter {
	return &Adapter{
		Source:       config.SourceCoupons,
		envelopeKeys: []string{"coupons", "items"},
		fields: fieldAliases{
			ID:          []string{"coupon_id", "id"},
			Source:      []string{"source", "domain", "store"},
			Title:       []string{"name", "title"},
			Description: []string{"terms", "description"},
			URL:         []string{"url", "landing_url"},
			Image:       []string{"image_url"},
			Code:        []string{"code", "promo_code"},
			Value:       []string{"discount", "value"},
			Expiry:      []string{"expires_at", "expiry"},
		},
	}
}

// ForumAdapter handles the community (huaren) deal-post feed.
func ForumAdapter() *Adapter {
	return &Adapter{
		Source:       config.SourceForum,
		envelopeKeys: []string{"posts", "items"},
		fields: fieldAliases{
			ID:          []string{"post_id", "id"},
			Source:      []string{"source", "domain"},
			Title:       []string{"title", "subject"},
			Description: []string{"body", "content", "description"},
			URL:         []string{"url", "link"},
			Image:       []string{"image", "image_url"},
			Value:       []string{"deal_value", "value"},
			Expiry:      []string{"expiry"},
			CNScore:     []string{"cn_score"},
		},
	}
}

// Parse unwraps a raw feed response and maps each object into a
// RawDealRecord. Records missing both a title and a URL are silently skipped;
// skipped is the count of those. Malformed envelopes yield an error, but a
// malformed record never fails the batch.
func (a *Adapter) Parse(data []byte) (records []models.RawDealRecord, skipped int, err error) {
	objects, err := unwrapEnvelope(data, a.envelopeKeys)
	if err != nil {
		return nil, 0, err
	}

	for i, obj := range objects {
		// A record announcing its own source (the deal's domain or merchant)
		// overrides the feed tag, so the same deal seen through two feeds
		// shares one dedup identity. The feed tag is the fallback.
		recordSource := stringField(obj, a.fields.Source)
		if recordSource == "" {
			recordSource = a.Source
		}

		rec := models.RawDealRecord{
			Source:      recordSource,
			SourceID:    stringField(obj, a.fields.ID),
			Title:       stringField(obj, a.fields.Title),
			Description: stringField(obj, a.fields.Description),
			URL:         stringField(obj, a.fields.URL),
			ImageURL:    stringField(obj, a.fields.Image),
			Code:        stringField(obj, a.fields.Code),
			Expiry:      stringField(obj, a.fields.Expiry),
			CNScore:     floatField(obj, a.fields.CNScore),
			FeedIndex:   i,
		}

		// Value fields may arrive numeric or as display text.
		if v := floatField(obj, a.fields.Value); v != nil {
			rec.ValueUSD = v
		} else {
			rec.ValueText = stringField(obj, a.fields.Value)
		}

		if strings.TrimSpace(rec.Title) == "" && strings.TrimSpace(rec.URL) == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// unwrapEnvelope accepts either a bare JSON array or an object wrapping one
// under any of the given keys.
func unwrapEnvelope(data []byte, keys []string) ([]map[string]any, error) {
	var direct []map[string]any
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var objects []map[string]any
		if err := json.Unmarshal(raw, &objects); err != nil {
			return nil, err
		}
		return objects, nil
	}
	// An envelope without any known key is an empty feed, not an error.
	return nil, nil
}

func stringField(obj map[string]any, aliases []string) string {
	for _, key := range aliases {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func floatField(obj map[string]any, aliases []string) *float64 {
	for _, key := range aliases {
		if v, ok := obj[key]; ok {
			if f, ok := v.(float64); ok {
				value := f
				return &value
			}
		}
	}
	return nil
}
