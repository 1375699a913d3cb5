package models

// Candidate sampling and recency window defaults for the selection engine.
const (
	// DefaultSampleSize bounds the random candidate sample drawn per call.
	// Sampling-then-scoring is deliberate: it avoids scoring the whole
	// catalog and the randomness is what supplies variety between calls.
	DefaultSampleSize = 200

	// DefaultRecencyWindow is how many of the user's most recent ratings
	// attract the mild re-surfacing penalty.
	DefaultRecencyWindow = 50

	// DefaultStrongRecencyWindow is the subset of the recency window that
	// attracts the heavy penalty. Always a prefix of the recency window.
	DefaultStrongRecencyWindow = 10
)

// RankerConfig contains all weights and windows used by the selection engine.
type RankerConfig struct {
	// PartnerStrongBonus applies when the partner rated the candidate at or
	// above ShortListThreshold. PartnerAnyBonus applies for any lower
	// partner rating; no partner rating contributes nothing.
	PartnerStrongBonus float64 `json:"partner_strong_bonus"`
	PartnerAnyBonus    float64 `json:"partner_any_bonus"`

	// LetterBonus and OriginBonus reward overlap with the letters/origins of
	// the user's own top-rated names.
	LetterBonus float64 `json:"letter_bonus"`
	OriginBonus float64 `json:"origin_bonus"`

	// TagBonus is added per meaning tag shared with the user's top-rated
	// names, up to TagBonusCap.
	TagBonus    float64 `json:"tag_bonus"`
	TagBonusCap float64 `json:"tag_bonus_cap"`

	// PopularityBonus rewards ranks in the middle half of the catalog
	// (25th-75th percentile) - familiar but not top-of-chart.
	PopularityBonus float64 `json:"popularity_bonus"`

	// StrongRecencyPenalty applies inside the strong recency window,
	// RecencyPenalty inside the rest of the recency window.
	StrongRecencyPenalty float64 `json:"strong_recency_penalty"`
	RecencyPenalty       float64 `json:"recency_penalty"`

	// JitterRange is the width of the uniform random term added last.
	// Narrow enough that the deterministic terms usually dominate.
	JitterRange float64 `json:"jitter_range"`

	// HighRatingThreshold is the minimum own-rating for a name to feed the
	// taste-similarity sets. Matches ShortListThreshold by default.
	HighRatingThreshold int `json:"high_rating_threshold"`

	SampleSize          int `json:"sample_size"`
	RecencyWindow       int `json:"recency_window"`
	StrongRecencyWindow int `json:"strong_recency_window"`
}

// DefaultRankerConfig returns the production weights.
func DefaultRankerConfig() *RankerConfig {
	return &RankerConfig{
		PartnerStrongBonus:   30,
		PartnerAnyBonus:      15,
		LetterBonus:          10,
		OriginBonus:          10,
		TagBonus:             5,
		TagBonusCap:          10,
		PopularityBonus:      5,
		StrongRecencyPenalty: 50,
		RecencyPenalty:       20,
		JitterRange:          5,
		HighRatingThreshold:  ShortListThreshold,
		SampleSize:           DefaultSampleSize,
		RecencyWindow:        DefaultRecencyWindow,
		StrongRecencyWindow:  DefaultStrongRecencyWindow,
	}
}
