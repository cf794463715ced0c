package match

import (
	"fmt"
	"strings"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// explain renders the deterministic explanation paragraph and gap list for a
// scored pair. No model call is involved; the text is templated purely from
// the breakdown and the missing-skill lists.
func explain(c CandidateProfile, j JobProfile, b domain.Breakdown, sk skillsDetail) (string, []domain.Gap) {
	gaps := make([]domain.Gap, 0, len(sk.missingCore)+len(sk.missingOther)+2)
	for _, s := range sk.missingCore {
		gaps = append(gaps, domain.Gap{
			Severity:    domain.GapCritical,
			Description: fmt.Sprintf("Missing required skill: %s", s),
		})
	}
	for _, s := range sk.missingOther {
		gaps = append(gaps, domain.Gap{
			Severity:    domain.GapModerate,
			Description: fmt.Sprintf("Missing secondary skill: %s", s),
		})
	}
	years := c.Matrix.TotalYearsExperience
	if j.MinYears > 0 && years < float64(j.MinYears) {
		gaps = append(gaps, domain.Gap{
			Severity:    domain.GapMajor,
			Description: fmt.Sprintf("Has %.1f years of experience; the role asks for at least %d", years, j.MinYears),
		})
	}
	if j.LocationType == domain.LocationOnsite && c.country() != "" && j.Country != "" &&
		!strings.EqualFold(c.country(), j.Country) {
		gaps = append(gaps, domain.Gap{
			Severity:    domain.GapModerate,
			Description: fmt.Sprintf("Based in %s while the role is onsite in %s", c.country(), j.Country),
		})
	}

	expl := fmt.Sprintf(
		"Skill alignment is %s (%d/100) and experience fit is %s (%d/100). Domain overlap scores %d/100 and location fit %d/100.",
		grade(b.Skills), b.Skills, grade(b.Experience), b.Experience, b.Domain, b.Location,
	)
	if len(sk.missingCore) > 0 {
		expl += fmt.Sprintf(" Key requirements not evidenced: %s.", strings.Join(sk.missingCore, ", "))
	}
	return expl, gaps
}

func grade(score int) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 50:
		return "moderate"
	case score > 0:
		return "weak"
	}
	return "absent"
}
