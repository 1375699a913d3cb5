// Package ranker implements the name selection engine: sample candidates,
// score them against the couple's rating history, return the winner.
package ranker

import (
	"math"
	"strings"

	"github.com/noahshaw/namematch/pkg/models"
)

// scoringContext is everything a single SelectNext call needs to score its
// candidate sample. Assembled fresh per call, never cached.
type scoringContext struct {
	partnerRatings map[int64]int
	likedLetters   map[string]struct{}
	likedOrigins   map[string]struct{}
	likedTags      map[string]struct{}

	// recentIndex maps name ID to its position in the user's recency
	// ordering, 0 = most recent. Only the recency window is present.
	recentIndex map[int64]int

	catalogCount int64
}

// buildTasteSets folds the user's top-rated name traits into lookup sets.
func buildTasteSets(traits []models.NameTraits) (letters, origins, tags map[string]struct{}) {
	letters = make(map[string]struct{})
	origins = make(map[string]struct{})
	tags = make(map[string]struct{})
	for _, tr := range traits {
		if tr.StartingLetter != "" {
			letters[strings.ToUpper(tr.StartingLetter)] = struct{}{}
		}
		if tr.Origin != "" {
			origins[strings.ToLower(tr.Origin)] = struct{}{}
		}
		for _, tag := range tr.MeaningTags {
			if tag != "" {
				tags[strings.ToLower(tag)] = struct{}{}
			}
		}
	}
	return letters, origins, tags
}

// ScoreComponents is the breakdown of one candidate's score. Useful for
// debugging and for explaining a suggestion.
type ScoreComponents struct {
	PartnerBonus    float64 `json:"partner_bonus"`
	LetterBonus     float64 `json:"letter_bonus"`
	OriginBonus     float64 `json:"origin_bonus"`
	TagBonus        float64 `json:"tag_bonus"`
	PopularityBonus float64 `json:"popularity_bonus"`
	RecencyPenalty  float64 `json:"recency_penalty"`
	Jitter          float64 `json:"jitter"`
	FinalScore      float64 `json:"final_score"`
}

// scoreCandidate computes the additive score for one candidate.
//
// The formula:
//
//	FinalScore = PartnerBonus + LetterBonus + OriginBonus + TagBonus
//	           + PopularityBonus - RecencyPenalty + Jitter
//
// Each term comes from the config weights; jitter is uniform in
// [0, JitterRange) and is added last so it only breaks near-ties.
func (s *Selector) scoreCandidate(c *models.Candidate, sctx *scoringContext) ScoreComponents {
	cfg := s.config
	var comp ScoreComponents

	// Partner agreement dominates everything else.
	if rating, ok := sctx.partnerRatings[c.ID]; ok {
		if rating >= cfg.HighRatingThreshold {
			comp.PartnerBonus = cfg.PartnerStrongBonus
		} else {
			comp.PartnerBonus = cfg.PartnerAnyBonus
		}
	}

	// Taste similarity against the user's own top-rated names.
	if _, ok := sctx.likedLetters[strings.ToUpper(c.StartingLetter)]; ok {
		comp.LetterBonus = cfg.LetterBonus
	}
	if _, ok := sctx.likedOrigins[strings.ToLower(c.Origin)]; ok && c.Origin != "" {
		comp.OriginBonus = cfg.OriginBonus
	}
	for _, tag := range c.MeaningTags {
		if _, ok := sctx.likedTags[strings.ToLower(tag)]; ok {
			comp.TagBonus += cfg.TagBonus
		}
	}
	if comp.TagBonus > cfg.TagBonusCap {
		comp.TagBonus = cfg.TagBonusCap
	}

	// Middle-half popularity: familiar but not top-of-chart.
	lower := int(math.Floor(float64(sctx.catalogCount) * 0.25))
	upper := int(math.Floor(float64(sctx.catalogCount) * 0.75))
	if c.USRank >= lower && c.USRank <= upper {
		comp.PopularityBonus = cfg.PopularityBonus
	}

	// Recency: re-surfacing a just-rated name is the worst outcome.
	if pos, ok := sctx.recentIndex[c.ID]; ok {
		if pos < cfg.StrongRecencyWindow {
			comp.RecencyPenalty = cfg.StrongRecencyPenalty
		} else {
			comp.RecencyPenalty = cfg.RecencyPenalty
		}
	}

	comp.Jitter = s.jitter() * cfg.JitterRange

	comp.FinalScore = comp.PartnerBonus + comp.LetterBonus + comp.OriginBonus +
		comp.TagBonus + comp.PopularityBonus - comp.RecencyPenalty + comp.Jitter
	return comp
}
