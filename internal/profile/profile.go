// Package profile holds the canonical professional profile the chatbot is
// allowed to speak from. The YAML file is the single source of truth; the
// assistant must never answer beyond it.
package profile

import (
	"fmt"
	"strings"
)

// PersonalInfo is the profile header.
type PersonalInfo struct {
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title" yaml:"title"`
	Tagline  string `json:"tagline" yaml:"tagline"`
	LinkedIn string `json:"linkedin" yaml:"linkedin"`
	Location string `json:"location" yaml:"location"`
}

// Bios are the approved self-descriptions, verbatim.
type Bios struct {
	Short  string `json:"short" yaml:"short"`
	Medium string `json:"medium" yaml:"medium"`
}

// Employment is one timeline entry.
type Employment struct {
	Company     string   `json:"company" yaml:"company"`
	Role        string   `json:"role" yaml:"role"`
	StartDate   string   `json:"start_date" yaml:"start_date"`
	EndDate     string   `json:"end_date" yaml:"end_date"`
	Description string   `json:"description" yaml:"description"`
	Highlights  []string `json:"highlights" yaml:"highlights"`
}

// Education is one degree.
type Education struct {
	Institution string `json:"institution" yaml:"institution"`
	Degree      string `json:"degree" yaml:"degree"`
	Field       string `json:"field" yaml:"field"`
	StartDate   string `json:"start_date" yaml:"start_date"`
	EndDate     string `json:"end_date" yaml:"end_date"`
}

// Skill groups related items under a category.
type Skill struct {
	Category string   `json:"category" yaml:"category"`
	Items    []string `json:"items" yaml:"items"`
}

// Link is an approved external reference.
type Link struct {
	Label       string `json:"label" yaml:"label"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description" yaml:"description"`
}

// Profile is the full canonical dataset.
type Profile struct {
	PersonalInfo PersonalInfo `json:"personal_info" yaml:"personal_info"`
	Bios         Bios         `json:"bios" yaml:"bios"`
	Employment   []Employment `json:"employment" yaml:"employment"`
	Education    []Education  `json:"education" yaml:"education"`
	Skills       []Skill      `json:"skills" yaml:"skills"`
	Links        []Link       `json:"links" yaml:"links"`
}

// FullContext renders the whole profile as plain text for the LLM's system
// context.
func (p *Profile) FullContext() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", p.PersonalInfo.Name)
	fmt.Fprintf(&b, "Title: %s\n", p.PersonalInfo.Title)
	fmt.Fprintf(&b, "Tagline: %s\n", p.PersonalInfo.Tagline)
	fmt.Fprintf(&b, "\nBio: %s\n", p.Bios.Medium)

	b.WriteString("\nWork Experience:\n")
	for _, job := range p.Employment {
		fmt.Fprintf(&b, "- %s at %s (%s-%s): %s\n",
			job.Role, job.Company, job.StartDate, job.EndDate, job.Description)
	}

	b.WriteString("\nEducation:\n")
	for _, edu := range p.Education {
		fmt.Fprintf(&b, "- %s in %s from %s (%s-%s)\n",
			edu.Degree, edu.Field, edu.Institution, edu.StartDate, edu.EndDate)
	}

	b.WriteString("\nSkills:\n")
	for _, skill := range p.Skills {
		fmt.Fprintf(&b, "- %s: %s\n", skill.Category, strings.Join(skill.Items, ", "))
	}

	return b.String()
}

// Search returns the profile fragments relevant to a free-text query, or ""
// when nothing matched. Plain substring matching: the dataset is small and
// the result only supplements the LLM context.
func (p *Profile) Search(query string) string {
	lower := strings.ToLower(query)
	var results []string

	for _, job := range p.Employment {
		matched := strings.Contains(lower, strings.ToLower(job.Company)) ||
			strings.Contains(lower, strings.ToLower(job.Role)) ||
			strings.Contains(strings.ToLower(job.Description), lower)
		for _, h := range job.Highlights {
			matched = matched || strings.Contains(strings.ToLower(h), lower)
		}
		if matched {
			results = append(results, fmt.Sprintf("%s at %s (%s-%s): %s Key highlights: %s",
				job.Role, job.Company, job.StartDate, job.EndDate,
				job.Description, strings.Join(job.Highlights, "; ")))
		}
	}

	eduQuery := strings.Contains(lower, "education") || strings.Contains(lower, "degree") ||
		strings.Contains(lower, "university") || strings.Contains(lower, "college")
	for _, edu := range p.Education {
		if eduQuery ||
			strings.Contains(lower, strings.ToLower(edu.Institution)) ||
			strings.Contains(lower, strings.ToLower(edu.Field)) {
			results = append(results, fmt.Sprintf("%s in %s from %s (%s-%s)",
				edu.Degree, edu.Field, edu.Institution, edu.StartDate, edu.EndDate))
		}
	}

	skillQuery := strings.Contains(lower, "skill") || strings.Contains(lower, "expertise") ||
		strings.Contains(lower, "experience")
	for _, skill := range p.Skills {
		matched := skillQuery
		for _, item := range skill.Items {
			matched = matched || strings.Contains(lower, strings.ToLower(item))
		}
		if matched {
			results = append(results, fmt.Sprintf("%s: %s",
				skill.Category, strings.Join(skill.Items, ", ")))
		}
	}

	if len(results) == 0 {
		return ""
	}
	return strings.Join(results, "\n")
}
