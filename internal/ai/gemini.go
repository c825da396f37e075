package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/bayhub-app/deals/internal/models"
)

// Client cleans up display titles for highlighted deals. A nil Client is
// valid and every method degrades gracefully, so callers never branch on
// whether an API key was configured.
type Client struct {
	model *genai.GenerativeModel
}

type titleResult struct {
	CleanTitle string `json:"clean_title"`
}

func NewClient(ctx context.Context, apiKey, modelID string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelID)
	model.SetTemperature(0.1) // Low temperature for deterministic output
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"clean_title": {
				Type:        genai.TypeString,
				Description: "A concise 5-15 word display title for the deal. Keep the merchant and the concrete offer, drop promo fluff and ALL-CAPS noise.",
			},
		},
		Required: []string{"clean_title"},
	}

	return &Client{model: model}, nil
}

// CleanTitle produces a tightened display title for a deal. Returns "" (and
// no error) when the client is unconfigured; the caller keeps the original
// title on any failure.
func (c *Client) CleanTitle(ctx context.Context, deal *models.NormalizedDeal) (string, error) {
	if c == nil || c.model == nil {
		return "", nil
	}

	prompt := fmt.Sprintf(`
Rewrite this deal for a dashboard card:
Title: "%s"
Description: "%s"
Value: "%s"

Produce a clean, concise title (5-15 words). Output JSON adhering to the schema.
`, deal.Title, deal.Description, deal.PriceOrValueText)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from gemini")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		txt, ok := part.(genai.Text)
		if !ok {
			continue
		}
		// Clean up potential markdown fencing just in case.
		jsonStr := strings.TrimSpace(string(txt))
		jsonStr = strings.TrimPrefix(jsonStr, "```json")
		jsonStr = strings.TrimPrefix(jsonStr, "```")
		jsonStr = strings.TrimSuffix(jsonStr, "```")

		var result titleResult
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			return "", fmt.Errorf("failed to parse gemini response: %w", err)
		}
		return result.CleanTitle, nil
	}
	return "", fmt.Errorf("no text part in response")
}
