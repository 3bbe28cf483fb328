package runs

import (
	"math"
	"strings"
)

// Price is the USD cost per one million tokens.
type Price struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing covers the models the service is configured with.
var DefaultPricing = map[string]Price{
	"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
}

// Cost returns the USD cost for a call, or nil when the model is unknown or usage is missing.
func Cost(pricing map[string]Price, model string, tokensIn, tokensOut *int) *float64 {
	if tokensIn == nil && tokensOut == nil {
		return nil
	}
	price, ok := pricing[strings.ToLower(strings.TrimSpace(model))]
	if !ok {
		return nil
	}
	var total float64
	if tokensIn != nil {
		total += float64(*tokensIn) * price.InputPerMillion / 1_000_000
	}
	if tokensOut != nil {
		total += float64(*tokensOut) * price.OutputPerMillion / 1_000_000
	}
	total = math.Round(total*1_000_000) / 1_000_000
	return &total
}

// RoundCents rounds a dollar amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
