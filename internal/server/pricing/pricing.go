// Package pricing turns token counts into an estimated dollar cost.
package pricing

import (
	"fmt"
	"math"
	"strings"
)

const perTokens = 1_000_000

// Rate is the price in dollars per one million tokens.
type Rate struct {
	Prompt     float64
	Completion float64
}

var rates = map[string]Rate{
	"gemini-2.5-flash": {Prompt: 0.075, Completion: 0.30},
	"gemini-2.0-flash": {Prompt: 0.10, Completion: 0.40},
	"gemini-2.5-pro":   {Prompt: 1.25, Completion: 10.00},
	"gemini-1.5-flash": {Prompt: 0.075, Completion: 0.30},
}

type Calculator struct {
	model string
	rate  Rate
}

// NewCalculator returns a calculator for model, or an error for a model
// without a known price.
func NewCalculator(model string) (*Calculator, error) {
	r, ok := rates[model]
	if !ok {
		return nil, fmt.Errorf("no pricing for model %q", model)
	}
	return &Calculator{model: model, rate: r}, nil
}

func (c *Calculator) Model() string { return c.model }
func (c *Calculator) Rate() Rate    { return c.rate }

// Cost is prompt/1e6 × prompt rate + completion/1e6 × completion rate.
func (c *Calculator) Cost(promptTokens, completionTokens int64) float64 {
	return float64(promptTokens)/perTokens*c.rate.Prompt +
		float64(completionTokens)/perTokens*c.rate.Completion
}

// EstimateTokens approximates a token count as 1.3 tokens per
// whitespace-separated word, rounded up. Empty text is zero tokens.
func EstimateTokens(text string) int64 {
	words := len(strings.Fields(text))
	return int64(math.Ceil(float64(words) * 1.3))
}
