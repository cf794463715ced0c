package match

import "github.com/hiretrack/hiretrack/internal/domain"

// ShouldConsider decides whether a candidate is worth scoring against a job.
// It is total: any pair of inputs yields a verdict, never a panic.
func ShouldConsider(c CandidateProfile, j JobProfile) bool {
	years := c.Matrix.TotalYearsExperience

	if isInternship(j) {
		// Intern-shaped candidates get up to two years of grace; everyone
		// else must be a true newcomer.
		if isInternShaped(c) {
			if years > 2 {
				return false
			}
		} else if years != 0 {
			return false
		}
	} else {
		if j.MinYears > 0 && years < 0.8*float64(j.MinYears) {
			return false
		}
		switch j.Seniority {
		case domain.SeniorityJunior:
			if years > 3 {
				return false
			}
		case domain.SeniorityMid:
			if years > 8 {
				return false
			}
		case domain.SenioritySenior:
			if years > 15 {
				return false
			}
		}
	}

	if len(c.Matrix.Skills) == 0 {
		return false
	}

	ix := buildSkillIndex(c.Matrix.Skills)
	core := coreRequired(j.Matrix.RequiredSkills)
	if len(core) == 0 {
		return true
	}
	for _, ws := range core {
		if ix.matches(ws.Skill) {
			return true
		}
	}
	// Internships are lenient: any technical skill keeps the candidate in
	// the running even without a core hit.
	return isInternship(j) && ix.hasTechnical
}
