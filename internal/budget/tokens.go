package budget

import (
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
)

// Gemini pricing, dollars per million tokens.
const (
	InputCostPerMillion  = 3.0
	OutputCostPerMillion = 15.0
)

// Cost converts token counts to dollars.
func Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*InputCostPerMillion +
		float64(outputTokens)/1e6*OutputCostPerMillion
}

// Estimator counts tokens for budget accounting. The count feeds spend
// tracking, not billing, so the BPE and the bytes/4 fallback are both
// acceptable approximations of Gemini's own tokenizer.
type Estimator struct {
	codec tokenizer.Codec
}

// NewEstimator creates a token estimator. Falls back to a byte heuristic
// when the encoding is unavailable.
func NewEstimator() *Estimator {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		log.Warn().Err(err).Msg("tokenizer unavailable, using byte estimate")
		return &Estimator{}
	}
	return &Estimator{codec: codec}
}

// Count estimates the token count of text.
func (e *Estimator) Count(text string) int {
	if e.codec != nil {
		if n, err := e.codec.Count(text); err == nil {
			return n
		}
	}
	// Rough heuristic: one token per four bytes of UTF-8.
	n := len(text) / 4
	if n == 0 && text != "" {
		n = 1
	}
	return n
}
