package match

import (
	"math"
	"sort"
	"strings"

	"github.com/hiretrack/hiretrack/internal/domain"
	"github.com/hiretrack/hiretrack/internal/skillnorm"
)

// genericWeightFactor down-weights generic tool-literacy skills so that git
// and jira never dominate a requirement list.
const genericWeightFactor = 0.3

// Score computes the full match result for one pair. Inputs are taken as
// given; callers run ShouldConsider first when they want the pre-filter.
func Score(c CandidateProfile, j JobProfile) Result {
	ix := buildSkillIndex(c.Matrix.Skills)
	sk := skillsScore(ix, j)
	exp := experienceScore(c, j)
	dom := domainScore(c, j)
	loc := locationScore(c, j)

	b := domain.Breakdown{Skills: sk.score, Experience: exp, Domain: dom, Location: loc}

	sw := j.Matrix.SkillsWeight()
	ew := j.Matrix.ExperienceWeight
	lw := j.Matrix.LocationWeight
	dw := j.Matrix.DomainWeight
	total := sw + ew + lw + dw
	score := 0
	if total > 0 {
		score = round(float64(b.Skills*sw+b.Experience*ew+b.Domain*dw+b.Location*lw) / float64(total))
	}
	score = clamp(score, 0, 100)

	expl, gaps := explain(c, j, b, sk)
	return Result{Score: score, Breakdown: b, Explanation: expl, Gaps: gaps}
}

type skillsDetail struct {
	score        int
	missingCore  []string
	missingOther []string
}

// partition splits technical required skills into core (top share by weight)
// and the rest.
func partition(required []domain.WeightedSkill) (core, nonCore []domain.WeightedSkill) {
	sorted := make([]domain.WeightedSkill, len(required))
	copy(sorted, required)
	sort.SliceStable(sorted, func(i, k int) bool { return sorted[i].Weight > sorted[k].Weight })
	n := int(math.Ceil(0.3 * float64(len(sorted))))
	if n < 3 {
		n = 3
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n], sorted[n:]
}

type tally struct {
	matchedWeight float64
	totalWeight   float64
	count         int
	countMatched  int
}

func (t tally) ratio() float64 {
	if t.totalWeight == 0 {
		return 0
	}
	return t.matchedWeight / t.totalWeight
}

func tallySkills(skills []domain.WeightedSkill, ix skillIndex, missing *[]string) tally {
	var t tally
	for _, ws := range skills {
		w := float64(ws.Weight)
		if skillnorm.IsGenericTechSkill(ws.Skill) {
			w *= genericWeightFactor
		}
		t.totalWeight += w
		t.count++
		if ix.matches(ws.Skill) {
			t.matchedWeight += w
			t.countMatched++
		} else if missing != nil {
			*missing = append(*missing, ws.Skill)
		}
	}
	return t
}

func skillsScore(ix skillIndex, j JobProfile) skillsDetail {
	var d skillsDetail
	required := technicalRequired(j.Matrix.RequiredSkills)
	if len(required) == 0 {
		// Nothing technical required: vacuously satisfied.
		d.score = preferredBlend(100, preferredComponent(ix, j))
		return d
	}
	internship := isInternship(j)

	core, nonCore := partition(required)
	coreT := tallySkills(core, ix, &d.missingCore)
	nonT := tallySkills(nonCore, ix, &d.missingOther)

	coreFraction := float64(coreT.countMatched) / float64(coreT.count)

	capped := -1
	if !internship {
		if coreFraction == 0 {
			d.score = 0
			return d
		}
		if coreFraction < 0.34 {
			capped = round(coreT.ratio() * 40)
			if capped > 25 {
				capped = 25
			}
		}
	} else if coreFraction == 0 && !ix.hasTechnical {
		d.score = 0
		return d
	}

	combined := round(coreT.ratio()*70 + nonT.ratio()*30)

	// Overall weight coverage gate across both partitions.
	overallTotal := coreT.totalWeight + nonT.totalWeight
	overall := 0.0
	if overallTotal > 0 {
		overall = (coreT.matchedWeight + nonT.matchedWeight) / overallTotal
	}
	threshold := 0.3
	if internship {
		threshold = 0.2
	}
	if overall < threshold {
		if !internship {
			d.score = 0
			return d
		}
		if coreT.countMatched >= 1 {
			d.score = round(float64(combined) * 0.5)
		} else {
			d.score = 0
		}
		return d
	}

	d.score = preferredBlend(combined, preferredComponent(ix, j))
	if capped >= 0 && d.score > capped {
		d.score = capped
	}
	d.score = clamp(d.score, 0, 100)
	return d
}

// preferredComponent scores the technical subset of preferred skills on a
// 0-70 scale, or -1 when the job lists none.
func preferredComponent(ix skillIndex, j JobProfile) int {
	preferred := technicalRequired(j.Matrix.PreferredSkills)
	t := tallySkills(preferred, ix, nil)
	if t.totalWeight == 0 {
		return -1
	}
	return round(t.ratio() * 70)
}

// preferredBlend folds the preferred component into the required one. A job
// without preferred skills is scored on requirements alone.
func preferredBlend(required, preferred int) int {
	if preferred < 0 {
		return required
	}
	return round(float64(required)*0.75 + float64(preferred)*0.25)
}

// experienceScore rates the candidate's years against the job's expected
// window.
func experienceScore(c CandidateProfile, j JobProfile) int {
	years := c.Matrix.TotalYearsExperience

	if j.MinYears == 0 && j.Seniority == "" {
		switch {
		case years >= 5:
			return 100
		case years >= 3:
			return 80
		case years >= 1:
			return 60
		default:
			return 40
		}
	}

	if isInternship(j) {
		if isInternShaped(c) {
			switch {
			case years <= 0:
				return 100
			case years <= 1:
				return 90
			case years <= 2:
				return 75
			default:
				return 0
			}
		}
		switch {
		case years <= 0:
			return 100
		case years <= 1:
			return 60
		default:
			return 0
		}
	}

	lo, hi := experienceWindow(j.MinYears, j.Seniority)
	switch {
	case years < lo:
		ratio := years / lo
		if ratio < 0.8 {
			return 0
		}
		return clamp(round(30+ratio*50), 30, 80)
	case hi < 0 || years <= hi:
		return 100
	}
	excess := years - hi
	switch {
	case excess <= 1:
		return 80
	case excess <= 2:
		return 50
	default:
		return 0
	}
}

// experienceWindow returns the expected [lo, hi] years for the role; hi < 0
// means unbounded.
func experienceWindow(minYears int, sen domain.Seniority) (float64, float64) {
	lo := float64(minYears)
	switch sen {
	case domain.SeniorityJunior:
		return math.Max(lo, 0), 2
	case domain.SeniorityMid:
		return math.Max(lo, 2), 5
	case domain.SenioritySenior:
		return math.Max(lo, 5), 10
	case domain.SeniorityLead:
		return math.Max(lo, 7), 15
	case domain.SeniorityPrincipal:
		return math.Max(lo, 10), -1
	}
	return lo, -1
}

// locationScore rates geographic fit.
func locationScore(c CandidateProfile, j JobProfile) int {
	if j.LocationType == domain.LocationRemote {
		return 100
	}
	cc := c.country()
	willing := c.Matrix.Location.WillingToRelocate
	if cc == "" || j.Country == "" {
		if willing {
			return 80
		}
		return 50
	}
	if strings.EqualFold(cc, j.Country) {
		return 100
	}
	if willing {
		for _, p := range c.Matrix.Location.PreferredLocations {
			if strings.EqualFold(p, j.Country) {
				return 90
			}
		}
		return 70
	}
	if j.LocationType == domain.LocationHybrid {
		return 40
	}
	return 20
}

func round(f float64) int { return int(math.Round(f)) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
