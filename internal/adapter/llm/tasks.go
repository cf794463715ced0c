package llm

import (
	"fmt"
	"time"

	"github.com/hiretrack/hiretrack/internal/domain"
)

const candidateInfoSystem = `You extract contact header information from a résumé.
Reply with ONLY a JSON object:
{"name": string, "email": string, "phone": string, "country": string, "country_code": string, "headline": string}
country_code is ISO 3166-1 alpha-2, uppercase. Use "" for anything not present.
Never invent values; the name must appear verbatim in the text.`

const candidateMatrixSystem = `You convert a résumé into a structured capability matrix.
Reply with ONLY a JSON object:
{
 "skills": [{"name": string, "level": "beginner"|"intermediate"|"advanced"|"expert", "years_of_experience": number}],
 "roles": [string],
 "total_years_experience": number,
 "domains": [string],
 "education": [{"degree": string, "institution": string, "field": string, "year": number}],
 "languages": [string],
 "location": {"current_country": string, "willing_to_relocate": boolean, "preferred_locations": [string]},
 "confidence": number,
 "evidence": [{"field": string, "snippet": string}]
}
confidence is your overall certainty in [0,1]. Each evidence snippet must be a
verbatim quote from the résumé. Do not list skills without evidence.`

const jobMatrixSystem = `You convert a job posting into a weighted requirement matrix.
Reply with ONLY a JSON object:
{
 "required_skills": [{"skill": string, "weight": number}],
 "preferred_skills": [{"skill": string, "weight": number}],
 "experience_weight": number,
 "location_weight": number,
 "domain_weight": number
}
Skill weights are integers in [0,100], higher meaning more important. The three
component weights are integers whose sum must stay below 100; the remainder is
the implicit skills weight. Every must-have skill supplied by the user belongs
in required_skills.`

const jobInfoSystem = `You extract a structured job posting from web page text.
Reply with ONLY a JSON object:
{"title": string, "department": string, "company": string,
 "location_type": "onsite"|"hybrid"|"remote", "country_code": string, "city": string,
 "description": string, "must_have_skills": [string], "nice_to_have_skills": [string],
 "min_years_experience": number, "seniority_level": "junior"|"mid"|"senior"|"lead"|"principal"}
country_code is ISO 3166-1 alpha-2, uppercase. description is a faithful
summary of the role in at most 300 words. Use "" or [] for missing fields.`

func (c *Client) ExtractCandidateInfo(ctx domain.Context, cvText string) (domain.CandidateInfo, error) {
	var out domain.CandidateInfo
	user := "Résumé text:\n\n" + c.truncate(cvText)
	if err := c.completeJSON(ctx, candidateInfoSystem, user, &out); err != nil {
		return domain.CandidateInfo{}, fmt.Errorf("op=llm.extract_candidate_info: %w", err)
	}
	return out, nil
}

type candidateMatrixPayload struct {
	Skills               []domain.CandidateSkill `json:"skills"`
	Roles                []string                `json:"roles"`
	TotalYearsExperience float64                 `json:"total_years_experience"`
	Domains              []string                `json:"domains"`
	Education            []domain.Education      `json:"education"`
	Languages            []string                `json:"languages"`
	Location             domain.LocationSignals  `json:"location"`
	Confidence           float64                 `json:"confidence"`
	Evidence             []domain.Evidence       `json:"evidence"`
}

func (c *Client) GenerateCandidateMatrix(ctx domain.Context, cvText string) (domain.CandidateMatrix, error) {
	var p candidateMatrixPayload
	user := "Résumé text:\n\n" + c.truncate(cvText)
	if err := c.completeJSON(ctx, candidateMatrixSystem, user, &p); err != nil {
		return domain.CandidateMatrix{}, fmt.Errorf("op=llm.generate_candidate_matrix: %w", err)
	}
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	if p.TotalYearsExperience < 0 {
		p.TotalYearsExperience = 0
	}
	skills := p.Skills[:0]
	for _, s := range p.Skills {
		if s.Name == "" {
			continue
		}
		if s.YearsOfExperience < 0 {
			s.YearsOfExperience = 0
		}
		switch s.Level {
		case domain.LevelBeginner, domain.LevelIntermediate, domain.LevelAdvanced, domain.LevelExpert:
		default:
			s.Level = domain.LevelIntermediate
		}
		skills = append(skills, s)
	}
	return domain.CandidateMatrix{
		Skills:               skills,
		Roles:                p.Roles,
		TotalYearsExperience: p.TotalYearsExperience,
		Domains:              p.Domains,
		Education:            p.Education,
		Languages:            p.Languages,
		Location:             p.Location,
		Confidence:           p.Confidence,
		Evidence:             p.Evidence,
		GeneratedAt:          time.Now().UTC(),
		ModelVersion:         c.model,
	}, nil
}

type jobMatrixPayload struct {
	RequiredSkills   []domain.WeightedSkill `json:"required_skills"`
	PreferredSkills  []domain.WeightedSkill `json:"preferred_skills"`
	ExperienceWeight int                    `json:"experience_weight"`
	LocationWeight   int                    `json:"location_weight"`
	DomainWeight     int                    `json:"domain_weight"`
}

func (c *Client) GenerateJobMatrix(ctx domain.Context, title, description string, mustHave, niceToHave []string) (domain.JobMatrix, error) {
	user := fmt.Sprintf("Title: %s\n\nMust-have skills: %v\nNice-to-have skills: %v\n\nDescription:\n%s",
		title, mustHave, niceToHave, c.truncate(description))
	var p jobMatrixPayload
	if err := c.completeJSON(ctx, jobMatrixSystem, user, &p); err != nil {
		return domain.JobMatrix{}, fmt.Errorf("op=llm.generate_job_matrix: %w", err)
	}
	m := domain.JobMatrix{
		RequiredSkills:   clampSkillWeights(p.RequiredSkills),
		PreferredSkills:  clampSkillWeights(p.PreferredSkills),
		ExperienceWeight: p.ExperienceWeight,
		LocationWeight:   p.LocationWeight,
		DomainWeight:     p.DomainWeight,
		GeneratedAt:      time.Now().UTC(),
		ModelVersion:     c.model,
	}
	// Component weights must be non-negative with a positive implicit skills
	// remainder; anything else falls back to the standard split.
	if m.ExperienceWeight < 0 || m.LocationWeight < 0 || m.DomainWeight < 0 || m.SkillsWeight() <= 0 {
		m.ExperienceWeight, m.LocationWeight, m.DomainWeight = 30, 10, 10
	}
	return m, nil
}

func clampSkillWeights(skills []domain.WeightedSkill) []domain.WeightedSkill {
	out := skills[:0]
	for _, s := range skills {
		if s.Skill == "" {
			continue
		}
		if s.Weight < 0 {
			s.Weight = 0
		}
		if s.Weight > 100 {
			s.Weight = 100
		}
		out = append(out, s)
	}
	return out
}

func (c *Client) ExtractJobInfo(ctx domain.Context, postingText string) (domain.JobPosting, error) {
	var out domain.JobPosting
	user := "Job posting page text:\n\n" + c.truncate(postingText)
	if err := c.completeJSON(ctx, jobInfoSystem, user, &out); err != nil {
		return domain.JobPosting{}, fmt.Errorf("op=llm.extract_job_info: %w", err)
	}
	switch out.LocationType {
	case string(domain.LocationOnsite), string(domain.LocationHybrid), string(domain.LocationRemote):
	default:
		out.LocationType = string(domain.LocationOnsite)
	}
	switch domain.Seniority(out.SeniorityLevel) {
	case domain.SeniorityJunior, domain.SeniorityMid, domain.SenioritySenior, domain.SeniorityLead, domain.SeniorityPrincipal:
	default:
		out.SeniorityLevel = string(domain.SeniorityMid)
	}
	if out.MinYearsExperience < 0 {
		out.MinYearsExperience = 0
	}
	return out, nil
}
