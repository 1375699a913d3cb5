package ranker

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// Selector picks the next name to show a user. It only reads; rating writes
// and short-list maintenance live in the ratings service.
type Selector struct {
	names   db.NameReader
	ratings db.RatingReader
	couples db.CoupleReader
	config  *models.RankerConfig
	jitter  func() float64
}

// Option configures a Selector.
type Option func(*Selector)

// WithJitterSource replaces the random jitter source. Tests use a constant
// source to make scoring deterministic.
func WithJitterSource(fn func() float64) Option {
	return func(s *Selector) { s.jitter = fn }
}

// NewSelector creates a selection engine over the given stores.
// If config is nil, uses the default configuration.
func NewSelector(names db.NameReader, ratings db.RatingReader, couples db.CoupleReader, config *models.RankerConfig, opts ...Option) *Selector {
	if config == nil {
		config = models.DefaultRankerConfig()
	}
	s := &Selector{
		names:   names,
		ratings: ratings,
		couples: couples,
		config:  config,
		jitter:  rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectNext returns the next name to show the user, or (nil, nil) when the
// filtered catalog is exhausted. excludeNameID keeps the name currently on
// screen from being suggested again; pass 0 to exclude nothing.
//
// A missing couple returns db.ErrNotFound so callers can tell "no such
// couple" apart from "nothing left to rate".
func (s *Selector) SelectNext(ctx context.Context, userID, coupleID, excludeNameID int64) (*models.Name, error) {
	couple, err := s.couples.GetCoupleByID(ctx, coupleID)
	if err != nil {
		return nil, fmt.Errorf("load couple %d: %w", coupleID, err)
	}
	partnerID := couple.PartnerOf(userID)

	candidates, err := s.sampleCandidates(ctx, userID, couple, excludeNameID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		log.Debug().Int64("couple_id", coupleID).Int64("user_id", userID).
			Msg("catalog exhausted for couple filters")
		return nil, nil
	}

	sctx, err := s.assembleContext(ctx, userID, partnerID, candidates)
	if err != nil {
		return nil, err
	}

	best := 0
	bestScore := s.scoreCandidate(&candidates[0], sctx)
	for i := 1; i < len(candidates); i++ {
		if comp := s.scoreCandidate(&candidates[i], sctx); comp.FinalScore > bestScore.FinalScore {
			best, bestScore = i, comp
		}
	}

	winner, err := s.names.GetNameByID(ctx, candidates[best].ID)
	if err != nil {
		return nil, fmt.Errorf("load winner %d: %w", candidates[best].ID, err)
	}

	log.Debug().
		Int64("user_id", userID).
		Int64("name_id", winner.ID).
		Int("sample_size", len(candidates)).
		Float64("score", bestScore.FinalScore).
		Msg("selected next name")
	return winner, nil
}

// sampleCandidates draws the unrated sample, falling back to the full
// filtered pool when the user has rated everything in it.
func (s *Selector) sampleCandidates(ctx context.Context, userID int64, couple *models.Couple, excludeNameID int64) ([]models.Candidate, error) {
	ratedIDs, err := s.ratings.RatedNameIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load rated name ids: %w", err)
	}

	exclude := ratedIDs
	if excludeNameID != 0 {
		exclude = append(exclude, excludeNameID)
	}

	filter := couple.Filter()
	candidates, err := s.names.SampleCandidates(ctx, filter, exclude, s.config.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("sample candidates: %w", err)
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	// Everything in the filtered pool is rated; recycle it rather than
	// going silent, still keeping the on-screen name out.
	var fallbackExclude []int64
	if excludeNameID != 0 {
		fallbackExclude = []int64{excludeNameID}
	}
	candidates, err = s.names.SampleCandidates(ctx, filter, fallbackExclude, s.config.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("sample fallback candidates: %w", err)
	}
	return candidates, nil
}

// assembleContext runs the four context reads concurrently. None of them
// depends on another, so the slowest read bounds the whole assembly.
func (s *Selector) assembleContext(ctx context.Context, userID, partnerID int64, candidates []models.Candidate) (*scoringContext, error) {
	candidateIDs := make([]int64, len(candidates))
	for i := range candidates {
		candidateIDs[i] = candidates[i].ID
	}

	sctx := &scoringContext{partnerRatings: map[int64]int{}}
	var traits []models.NameTraits
	var recentIDs []int64

	g, gctx := errgroup.WithContext(ctx)
	if partnerID != 0 {
		g.Go(func() error {
			m, err := s.ratings.RatingsForNames(gctx, partnerID, candidateIDs)
			if err != nil {
				return fmt.Errorf("load partner ratings: %w", err)
			}
			sctx.partnerRatings = m
			return nil
		})
	}
	g.Go(func() error {
		var err error
		traits, err = s.ratings.TopRatedTraits(gctx, userID, s.config.HighRatingThreshold)
		if err != nil {
			return fmt.Errorf("load top-rated traits: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recentIDs, err = s.ratings.RecentRatedNameIDs(gctx, userID, s.config.RecencyWindow)
		if err != nil {
			return fmt.Errorf("load recent ratings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sctx.catalogCount, err = s.names.CountNames(gctx)
		if err != nil {
			return fmt.Errorf("count catalog: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sctx.likedLetters, sctx.likedOrigins, sctx.likedTags = buildTasteSets(traits)
	sctx.recentIndex = make(map[int64]int, len(recentIDs))
	for i, id := range recentIDs {
		sctx.recentIndex[id] = i
	}
	return sctx, nil
}
