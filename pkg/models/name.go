// Package models contains domain models for namematch.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// GenderFilter restricts candidate names to one gender (or none).
type GenderFilter string

const (
	GenderBoy  GenderFilter = "boy"
	GenderGirl GenderFilter = "girl"
	GenderAll  GenderFilter = "all"
)

// Valid reports whether the filter is one of the accepted values.
func (g GenderFilter) Valid() bool {
	return g == GenderBoy || g == GenderGirl || g == GenderAll
}

// LetterFilterAll disables first-letter filtering for a couple.
const LetterFilterAll = "all"

// Name is a single entry in the name catalog. Reference data: loaded once
// from the national dataset, never mutated by the application.
type Name struct {
	Name                 string          `json:"name"`
	NameLower            string          `json:"-"`
	Origin               string          `json:"origin,omitempty"`
	Meaning              string          `json:"meaning,omitempty"`
	FamousPerson1        string          `json:"famous_person_1,omitempty"`
	FamousPerson2        string          `json:"famous_person_2,omitempty"`
	FamousPerson3        string          `json:"famous_person_3,omitempty"`
	Phonetic             string          `json:"phonetic,omitempty"`
	StartingLetter       string          `json:"starting_letter"`
	AlternativeSpellings JSONStringArray `json:"alternative_spellings,omitempty"`
	MeaningTags          JSONStringArray `json:"meaning_tags,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	ID                   int64           `json:"id"`
	USRank               int             `json:"us_rank"`
	WorldRank            int             `json:"world_rank"`
	SyllableCount        int             `json:"syllable_count,omitempty"`
	IsBoy                bool            `json:"is_boy"`
	IsGirl               bool            `json:"is_girl"`
}

// Candidate is the lightweight projection of a Name used during scoring.
// The full record is only fetched for the winning identifier.
type Candidate struct {
	Name           string          `json:"name"`
	StartingLetter string          `json:"starting_letter"`
	Origin         string          `json:"origin"`
	MeaningTags    JSONStringArray `json:"meaning_tags"`
	ID             int64           `json:"id"`
	USRank         int             `json:"us_rank"`
}

// NameTraits carries the attributes harvested from a user's top-rated names
// when building taste-similarity sets.
type NameTraits struct {
	StartingLetter string
	Origin         string
	MeaningTags    []string
}

// NameFilter describes the couple-level catalog restriction applied before
// sampling candidates.
type NameFilter struct {
	Gender      GenderFilter
	FirstLetter string // LetterFilterAll or a single uppercase letter
}

// JSONStringArray stores a string slice as a JSON text column, portable
// across PostgreSQL and SQLite.
type JSONStringArray []string

// Scan implements sql.Scanner for JSONStringArray.
func (j *JSONStringArray) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("JSONStringArray: unsupported type %T", src)
	}

	if len(data) == 0 {
		*j = nil
		return nil
	}

	return json.Unmarshal(data, j)
}

// Value implements driver.Valuer for JSONStringArray.
func (j JSONStringArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
