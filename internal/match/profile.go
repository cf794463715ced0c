// Package match implements the deterministic matching engine: a pre-filter
// deciding whether a (candidate, job) pair should be compared at all, and a
// weighted scorer producing a 0-100 score with a four-dimensional breakdown,
// explanation and gap list. Everything in this package is pure: no clocks,
// no I/O, no randomness.
package match

import (
	"strings"

	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/internal/skillnorm"
)

// CandidateProfile bundles everything the engine needs to know about a
// candidate. Country falls back to the matrix location signal when empty.
type CandidateProfile struct {
	Matrix   domain.CandidateMatrix
	Country  string
	Headline string
	Roles    []string
}

// JobProfile bundles everything the engine needs to know about a job.
type JobProfile struct {
	Matrix       domain.JobMatrix
	Title        string
	Department   string
	Description  string
	Country      string
	LocationType domain.LocationType
	MinYears     int
	Seniority    domain.Seniority
}

// Result is the outcome of scoring one pair.
type Result struct {
	Score       int
	Breakdown   domain.Breakdown
	Explanation string
	Gaps        []domain.Gap
}

// internTokens mark an intern-shaped candidate when found in the headline or
// any role, case-insensitive substring.
var internTokens = []string{"intern", "internship", "trainee", "apprentice", "student"}

func isInternShaped(c CandidateProfile) bool {
	probe := func(s string) bool {
		s = strings.ToLower(s)
		for _, tok := range internTokens {
			if strings.Contains(s, tok) {
				return true
			}
		}
		return false
	}
	if probe(c.Headline) {
		return true
	}
	for _, r := range c.Roles {
		if probe(r) {
			return true
		}
	}
	return false
}

// isInternship reports whether the job is internship-shaped. Both forms in
// the contract reduce to a zero minimum-experience requirement.
func isInternship(j JobProfile) bool { return j.MinYears == 0 }

func (c CandidateProfile) country() string {
	if c.Country != "" {
		return c.Country
	}
	return c.Matrix.Location.CurrentCountry
}

// skillIndex is the candidate skill lookup used by both filter and scorer.
// Keys hold the normalized token and the original lowercase of every
// non-soft skill.
type skillIndex struct {
	keys         map[string]struct{}
	hasTechnical bool
}

func buildSkillIndex(skills []domain.CandidateSkill) skillIndex {
	ix := skillIndex{keys: make(map[string]struct{}, len(skills)*2)}
	for _, s := range skills {
		norm := skillnorm.Normalize(s.Name)
		if skillnorm.IsSoftSkill(s.Name) || skillnorm.IsSoftSkill(norm) {
			continue
		}
		ix.keys[norm] = struct{}{}
		ix.keys[strings.ToLower(strings.TrimSpace(s.Name))] = struct{}{}
		if !skillnorm.IsGenericTechSkill(norm) {
			ix.hasTechnical = true
		}
	}
	return ix
}

// matches reports whether the candidate satisfies one required skill, via
// normalized equality, original-lowercase equality, or SQL-family
// compatibility.
func (ix skillIndex) matches(required string) bool {
	if _, ok := ix.keys[skillnorm.Normalize(required)]; ok {
		return true
	}
	if _, ok := ix.keys[strings.ToLower(strings.TrimSpace(required))]; ok {
		return true
	}
	for k := range ix.keys {
		if skillnorm.AreSQLCompatible(required, k) {
			return true
		}
	}
	return false
}

// technicalRequired drops soft-skill entries; what remains is what the
// scorer partitions and weighs.
func technicalRequired(skills []domain.WeightedSkill) []domain.WeightedSkill {
	out := make([]domain.WeightedSkill, 0, len(skills))
	for _, ws := range skills {
		if skillnorm.IsSoftSkill(ws.Skill) {
			continue
		}
		out = append(out, ws)
	}
	return out
}

// coreRequired are required skills that are neither soft nor generic.
func coreRequired(skills []domain.WeightedSkill) []domain.WeightedSkill {
	out := make([]domain.WeightedSkill, 0, len(skills))
	for _, ws := range skills {
		if skillnorm.IsSoftSkill(ws.Skill) || skillnorm.IsGenericTechSkill(ws.Skill) {
			continue
		}
		out = append(out, ws)
	}
	return out
}
