package source

import (
	"testing"

	"github.com/bayhub-app/deals/internal/config"
)

func TestFoodAdapterParse(t *testing.T) {
	body := []byte(`{
		"items": [
			{"id": "d1", "title": "BOGO Burger", "description": "Buy one get one", "link": "https://food.example/d1", "photo_url": "https://img.example/d1.jpg", "value": 7.5, "expiry": "2026-10-01", "cn_score": 0.8},
			{"name": "Alias Title", "url": "https://food.example/d2"},
			{"description": "no title and no url at all"}
		]
	}`)

	records, skipped, err := FoodAdapter().Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Parse() returned %d records, want 2", len(records))
	}
	if skipped != 1 {
		t.Errorf("Parse() skipped = %d, want 1", skipped)
	}

	first := records[0]
	if first.Source != config.SourceFood {
		t.Errorf("Source = %q, want %q", first.Source, config.SourceFood)
	}
	if first.SourceID != "d1" || first.Title != "BOGO Burger" || first.URL != "https://food.example/d1" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.ValueUSD == nil || *first.ValueUSD != 7.5 {
		t.Errorf("ValueUSD = %v, want 7.5", first.ValueUSD)
	}
	if first.CNScore == nil || *first.CNScore != 0.8 {
		t.Errorf("CNScore = %v, want 0.8", first.CNScore)
	}

	// Alias resolution: "name"/"url" instead of "title"/"link".
	second := records[1]
	if second.Title != "Alias Title" || second.URL != "https://food.example/d2" {
		t.Errorf("alias mapping failed: %+v", second)
	}
	if second.FeedIndex != 1 {
		t.Errorf("FeedIndex = %d, want 1", second.FeedIndex)
	}
}

func TestCouponAdapterParse(t *testing.T) {
	body := []byte(`{
		"coupons": [
			{"coupon_id": "c9", "name": "Clip $5 coupon", "terms": "Clip in app", "url": "https://coupons.example/c9", "code": "SAVE5", "discount": "$5 off", "expires_at": "2026-09-15T00:00:00Z"}
		]
	}`)

	records, skipped, err := CouponAdapter().Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if skipped != 0 || len(records) != 1 {
		t.Fatalf("Parse() = %d records, %d skipped", len(records), skipped)
	}

	rec := records[0]
	if rec.Code != "SAVE5" {
		t.Errorf("Code = %q, want SAVE5", rec.Code)
	}
	if rec.Description != "Clip in app" {
		t.Errorf("Description = %q, want terms field", rec.Description)
	}
	// "$5 off" is not numeric; it must land in ValueText, not ValueUSD.
	if rec.ValueUSD != nil {
		t.Errorf("ValueUSD = %v, want nil for text discount", rec.ValueUSD)
	}
	if rec.ValueText != "$5 off" {
		t.Errorf("ValueText = %q, want %q", rec.ValueText, "$5 off")
	}
}

func TestForumAdapterBareArray(t *testing.T) {
	body := []byte(`[
		{"post_id": "p1", "title": "Costco deal", "body": "family pack", "url": "https://forum.example/p1"}
	]`)

	records, skipped, err := ForumAdapter().Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if skipped != 0 || len(records) != 1 {
		t.Fatalf("Parse() = %d records, %d skipped", len(records), skipped)
	}
	if records[0].SourceID != "p1" || records[0].Description != "family pack" {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestParseMalformedEnvelope(t *testing.T) {
	if _, _, err := FoodAdapter().Parse([]byte(`not json`)); err == nil {
		t.Error("Parse() expected error for malformed JSON")
	}
}

func TestParseUnknownEnvelopeKeyIsEmptyFeed(t *testing.T) {
	records, skipped, err := FoodAdapter().Parse([]byte(`{"unexpected": []}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 0 || skipped != 0 {
		t.Errorf("Parse() = %d records, %d skipped, want empty feed", len(records), skipped)
	}
}

func TestParseRecordLevelSource(t *testing.T) {
	body := []byte(`{
		"items": [
			{"title": "Chain deal", "link": "https://food.example/d1", "source": "chainA"},
			{"title": "Untagged deal", "link": "https://food.example/d2"}
		]
	}`)

	records, _, err := FoodAdapter().Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Parse() returned %d records, want 2", len(records))
	}

	// A record announcing its own source keeps it; the feed tag is only the
	// fallback when the field is absent.
	if records[0].Source != "chainA" {
		t.Errorf("Source = %q, want chainA", records[0].Source)
	}
	if records[1].Source != config.SourceFood {
		t.Errorf("Source = %q, want feed tag %q", records[1].Source, config.SourceFood)
	}
}

func TestParseTitleOnlyRecordKept(t *testing.T) {
	// A record with a title but no URL survives adaptation; the normalizer
	// is the stage that rejects it.
	body := []byte(`{"items": [{"title": "No link yet"}]}`)
	records, skipped, err := FoodAdapter().Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 || skipped != 0 {
		t.Fatalf("Parse() = %d records, %d skipped, want 1/0", len(records), skipped)
	}
}
