package ranker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahshaw/namematch/internal/db"
	"github.com/noahshaw/namematch/pkg/models"
)

// fakeStore implements the three reader interfaces over in-memory maps.
// SampleCandidates returns matches in insertion order, which makes the
// engine's choice a pure function of the scores once jitter is pinned.
type fakeStore struct {
	names   []models.Name
	couples map[int64]*models.Couple

	// ratings[userID][nameID] = value
	ratings map[int64]map[int64]int

	// recent[userID] = name IDs, most recent first
	recent map[int64][]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		couples: map[int64]*models.Couple{},
		ratings: map[int64]map[int64]int{},
		recent:  map[int64][]int64{},
	}
}

func (f *fakeStore) addName(n models.Name) {
	f.names = append(f.names, n)
}

func (f *fakeStore) rate(userID, nameID int64, value int) {
	if f.ratings[userID] == nil {
		f.ratings[userID] = map[int64]int{}
	}
	f.ratings[userID][nameID] = value
	f.recent[userID] = append([]int64{nameID}, f.recent[userID]...)
}

func (f *fakeStore) GetNameByID(_ context.Context, id int64) (*models.Name, error) {
	for i := range f.names {
		if f.names[i].ID == id {
			n := f.names[i]
			return &n, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) SampleCandidates(_ context.Context, filter models.NameFilter, excludeIDs []int64, limit int) ([]models.Candidate, error) {
	excluded := make(map[int64]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	var out []models.Candidate
	for i := range f.names {
		n := &f.names[i]
		if _, skip := excluded[n.ID]; skip {
			continue
		}
		if filter.Gender == models.GenderBoy && !n.IsBoy {
			continue
		}
		if filter.Gender == models.GenderGirl && !n.IsGirl {
			continue
		}
		if filter.FirstLetter != "" && filter.FirstLetter != models.LetterFilterAll && n.StartingLetter != filter.FirstLetter {
			continue
		}
		out = append(out, models.Candidate{
			Name:           n.Name,
			StartingLetter: n.StartingLetter,
			Origin:         n.Origin,
			MeaningTags:    n.MeaningTags,
			ID:             n.ID,
			USRank:         n.USRank,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) CountNames(_ context.Context) (int64, error) {
	return int64(len(f.names)), nil
}

func (f *fakeStore) RatedNameIDs(_ context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for id := range f.ratings[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) RatingsForNames(_ context.Context, userID int64, nameIDs []int64) (map[int64]int, error) {
	out := map[int64]int{}
	for _, id := range nameIDs {
		if v, ok := f.ratings[userID][id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeStore) TopRatedTraits(_ context.Context, userID int64, minRating int) ([]models.NameTraits, error) {
	var traits []models.NameTraits
	for nameID, v := range f.ratings[userID] {
		if v < minRating {
			continue
		}
		for i := range f.names {
			if f.names[i].ID == nameID {
				traits = append(traits, models.NameTraits{
					StartingLetter: f.names[i].StartingLetter,
					Origin:         f.names[i].Origin,
					MeaningTags:    f.names[i].MeaningTags,
				})
			}
		}
	}
	return traits, nil
}

func (f *fakeStore) RecentRatedNameIDs(_ context.Context, userID int64, limit int) ([]int64, error) {
	ids := f.recent[userID]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStore) GetCoupleByID(_ context.Context, id int64) (*models.Couple, error) {
	c, ok := f.couples[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) GetCoupleByMember(_ context.Context, userID int64) (*models.Couple, error) {
	for _, c := range f.couples {
		if c.User1ID == userID || c.User2ID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

// newTestSelector builds a Selector over the fake with zero jitter, so
// scores are fully deterministic.
func newTestSelector(f *fakeStore) *Selector {
	return NewSelector(f, f, f, nil, WithJitterSource(func() float64 { return 0 }))
}

const (
	testUser    = int64(1)
	testPartner = int64(2)
	testCouple  = int64(10)
)

func seedCouple(f *fakeStore) {
	f.couples[testCouple] = &models.Couple{
		GenderFilter:      models.GenderAll,
		FirstLetterFilter: models.LetterFilterAll,
		ID:                testCouple,
		User1ID:           testUser,
		User2ID:           testPartner,
	}
}

func TestSelectNext_MissingCouple(t *testing.T) {
	f := newFakeStore()
	s := newTestSelector(f)

	_, err := s.SelectNext(context.Background(), testUser, testCouple, 0)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestSelectNext_EmptyCatalog(t *testing.T) {
	f := newFakeStore()
	seedCouple(f)
	s := newTestSelector(f)

	name, err := s.SelectNext(context.Background(), testUser, testCouple, 0)
	require.NoError(t, err)
	assert.Nil(t, name, "exhausted catalog returns nil, nil")
}

func TestSelectNext_PartnerAgreementWins(t *testing.T) {
	f := newFakeStore()
	seedCouple(f)
	f.addName(models.Name{ID: 100, Name: "Arlo", StartingLetter: "A", IsBoy: true})
	f.addName(models.Name{ID: 101, Name: "Felix", StartingLetter: "F", IsBoy: true})
	f.addName(models.Name{ID: 102, Name: "Jasper", StartingLetter: "J", IsBoy: true})

	// Partner loved Felix, merely liked Jasper, never saw Arlo.
	f.ratings[testPartner] = map[int64]int{101: 5, 102: 3}

	s := newTestSelector(f)
	name, err := s.SelectNext(context.Background(), testUser, testCouple, 0)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Felix", name.Name)
}

func TestSelectNext_NeverSuggestsRatedOrExcluded(t *testing.T) {
	f := newFakeStore()
	seedCouple(f)
	f.addName(models.Name{ID: 100, Name: "Arlo", StartingLetter: "A", IsBoy: true})
	f.addName(models.Name{ID: 101, Name: "Felix", StartingLetter: "F", IsBoy: true})
	f.addName(models.Name{ID: 102, Name: "Jasper", StartingLetter: "J", IsBoy: true})
	f.rate(testUser, 100, 4)

	s := newTestSelector(f)

	// 100 is rated, 101 is on screen: only Jasper remains.
	name, err := s.SelectNext(context.Background(), testUser, testCouple, 101)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Jasper", name.Name)
}

func TestSelectNext_FallbackWhenAllRated(t *testing.T) {
	f := newFakeStore()
	seedCouple(f)
	f.addName(models.Name{ID: 100, Name: "Arlo", StartingLetter: "A", IsBoy: true})
	f.addName(models.Name{ID: 101, Name: "Felix", StartingLetter: "F", IsBoy: true})
	f.rate(testUser, 100, 3)
	f.rate(testUser, 101, 4)

	s := newTestSelector(f)

	// Everything is rated: recycle the pool, still excluding the on-screen
	// name.
	name, err := s.SelectNext(context.Background(), testUser, testCouple, 101)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Arlo", name.Name)
}

func TestSelectNext_FilterRespected(t *testing.T) {
	f := newFakeStore()
	f.couples[testCouple] = &models.Couple{
		GenderFilter:      models.GenderGirl,
		FirstLetterFilter: "L",
		ID:                testCouple,
		User1ID:           testUser,
	}
	f.addName(models.Name{ID: 100, Name: "Liam", StartingLetter: "L", IsBoy: true})
	f.addName(models.Name{ID: 101, Name: "Luna", StartingLetter: "L", IsGirl: true})
	f.addName(models.Name{ID: 102, Name: "Emma", StartingLetter: "E", IsGirl: true})

	s := newTestSelector(f)
	name, err := s.SelectNext(context.Background(), testUser, testCouple, 0)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Luna", name.Name)
}

func TestSelectNext_NoPartnerStillWorks(t *testing.T) {
	f := newFakeStore()
	f.couples[testCouple] = &models.Couple{
		GenderFilter:      models.GenderAll,
		FirstLetterFilter: models.LetterFilterAll,
		ID:                testCouple,
		User1ID:           testUser,
	}
	f.addName(models.Name{ID: 100, Name: "Arlo", StartingLetter: "A", IsBoy: true})

	s := newTestSelector(f)
	name, err := s.SelectNext(context.Background(), testUser, testCouple, 0)
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "Arlo", name.Name)
}

func TestScoreCandidate_TasteBonuses(t *testing.T) {
	f := newFakeStore()
	s := newTestSelector(f)

	sctx := &scoringContext{
		partnerRatings: map[int64]int{},
		likedLetters:   map[string]struct{}{"L": {}},
		likedOrigins:   map[string]struct{}{"latin": {}},
		likedTags:      map[string]struct{}{"moon": {}, "light": {}, "grace": {}},
		recentIndex:    map[int64]int{},
		catalogCount:   1000,
	}

	c := &models.Candidate{
		Name:           "Luna",
		StartingLetter: "L",
		Origin:         "Latin",
		MeaningTags:    models.JSONStringArray{"moon", "light", "grace"},
		ID:             1,
		USRank:         500, // inside [250, 750]
	}
	comp := s.scoreCandidate(c, sctx)

	assert.Equal(t, float64(10), comp.LetterBonus)
	assert.Equal(t, float64(10), comp.OriginBonus)
	assert.Equal(t, float64(10), comp.TagBonus, "three tag matches cap at 10")
	assert.Equal(t, float64(5), comp.PopularityBonus)
	assert.Equal(t, float64(35), comp.FinalScore)
}

func TestScoreCandidate_PopularityBand(t *testing.T) {
	f := newFakeStore()
	s := newTestSelector(f)

	sctx := &scoringContext{
		partnerRatings: map[int64]int{},
		likedLetters:   map[string]struct{}{},
		likedOrigins:   map[string]struct{}{},
		likedTags:      map[string]struct{}{},
		recentIndex:    map[int64]int{},
		catalogCount:   1000,
	}

	for rank, want := range map[int]float64{
		100: 0, // too popular
		250: 5, // lower bound inclusive
		750: 5, // upper bound inclusive
		900: 0, // too obscure
	} {
		comp := s.scoreCandidate(&models.Candidate{ID: 1, USRank: rank}, sctx)
		assert.Equal(t, want, comp.PopularityBonus, "rank %d", rank)
	}
}

func TestScoreCandidate_RecencyPenalties(t *testing.T) {
	f := newFakeStore()
	s := newTestSelector(f)

	sctx := &scoringContext{
		partnerRatings: map[int64]int{},
		likedLetters:   map[string]struct{}{},
		likedOrigins:   map[string]struct{}{},
		likedTags:      map[string]struct{}{},
		recentIndex:    map[int64]int{1: 0, 2: 9, 3: 10, 4: 49},
		catalogCount:   0,
	}

	assert.Equal(t, float64(50), s.scoreCandidate(&models.Candidate{ID: 1}, sctx).RecencyPenalty)
	assert.Equal(t, float64(50), s.scoreCandidate(&models.Candidate{ID: 2}, sctx).RecencyPenalty, "position 9 is still the strong window")
	assert.Equal(t, float64(20), s.scoreCandidate(&models.Candidate{ID: 3}, sctx).RecencyPenalty)
	assert.Equal(t, float64(20), s.scoreCandidate(&models.Candidate{ID: 4}, sctx).RecencyPenalty)
	assert.Equal(t, float64(0), s.scoreCandidate(&models.Candidate{ID: 5}, sctx).RecencyPenalty)
}

func TestScoreCandidate_PartnerThreshold(t *testing.T) {
	f := newFakeStore()
	s := newTestSelector(f)

	sctx := &scoringContext{
		partnerRatings: map[int64]int{1: 5, 2: 4, 3: 3, 4: 1},
		likedLetters:   map[string]struct{}{},
		likedOrigins:   map[string]struct{}{},
		likedTags:      map[string]struct{}{},
		recentIndex:    map[int64]int{},
	}

	assert.Equal(t, float64(30), s.scoreCandidate(&models.Candidate{ID: 1}, sctx).PartnerBonus)
	assert.Equal(t, float64(30), s.scoreCandidate(&models.Candidate{ID: 2}, sctx).PartnerBonus, "threshold is inclusive")
	assert.Equal(t, float64(15), s.scoreCandidate(&models.Candidate{ID: 3}, sctx).PartnerBonus)
	assert.Equal(t, float64(15), s.scoreCandidate(&models.Candidate{ID: 4}, sctx).PartnerBonus)
	assert.Equal(t, float64(0), s.scoreCandidate(&models.Candidate{ID: 5}, sctx).PartnerBonus)
}

func TestSelectNext_DeterministicWithZeroJitter(t *testing.T) {
	f := newFakeStore()
	seedCouple(f)
	f.addName(models.Name{ID: 100, Name: "Arlo", StartingLetter: "A", IsBoy: true})
	f.addName(models.Name{ID: 101, Name: "Felix", StartingLetter: "F", IsBoy: true})
	f.ratings[testPartner] = map[int64]int{101: 5}

	s := newTestSelector(f)
	for i := 0; i < 5; i++ {
		name, err := s.SelectNext(context.Background(), testUser, testCouple, 0)
		require.NoError(t, err)
		require.NotNil(t, name)
		assert.Equal(t, "Felix", name.Name)
	}
}
