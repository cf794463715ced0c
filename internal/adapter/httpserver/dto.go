package httpserver

import (
	"time"

	"github.com/hiretrack/hiretrack/internal/domain"
)

// Wire representations. Domain entities stay free of JSON tags; the mapping
// lives here.

type candidateDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Country   string    `json:"country,omitempty"`
	Headline  string    `json:"headline,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toCandidateDTO(c domain.Candidate) candidateDTO {
	return candidateDTO{
		ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone,
		Country: c.Country, Headline: c.Headline, Roles: c.Roles,
		CreatedAt: c.CreatedAt,
	}
}

type jobDTO struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Department         string    `json:"department,omitempty"`
	Company            string    `json:"company,omitempty"`
	LocationType       string    `json:"location_type"`
	Country            string    `json:"country,omitempty"`
	City               string    `json:"city,omitempty"`
	Description        string    `json:"description,omitempty"`
	MustHaveSkills     []string  `json:"must_have_skills,omitempty"`
	NiceToHaveSkills   []string  `json:"nice_to_have_skills,omitempty"`
	MinYearsExperience int       `json:"min_years_experience"`
	SeniorityLevel     string    `json:"seniority_level"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

func toJobDTO(j domain.Job) jobDTO {
	return jobDTO{
		ID: j.ID, Title: j.Title, Department: j.Department, Company: j.Company,
		LocationType: string(j.LocationType), Country: j.Country, City: j.City,
		Description: j.Description, MustHaveSkills: j.MustHaveSkills,
		NiceToHaveSkills: j.NiceToHaveSkills, MinYearsExperience: j.MinYearsExperience,
		SeniorityLevel: string(j.SeniorityLevel), Status: string(j.Status),
		CreatedAt: j.CreatedAt,
	}
}

type jobMatrixDTO struct {
	JobID            string                 `json:"job_id"`
	RequiredSkills   []domain.WeightedSkill `json:"required_skills"`
	PreferredSkills  []domain.WeightedSkill `json:"preferred_skills,omitempty"`
	ExperienceWeight int                    `json:"experience_weight"`
	LocationWeight   int                    `json:"location_weight"`
	DomainWeight     int                    `json:"domain_weight"`
	SkillsWeight     int                    `json:"skills_weight"`
	GeneratedAt      time.Time              `json:"generated_at"`
	ModelVersion     string                 `json:"model_version,omitempty"`
}

func toJobMatrixDTO(m domain.JobMatrix) jobMatrixDTO {
	return jobMatrixDTO{
		JobID: m.JobID, RequiredSkills: m.RequiredSkills, PreferredSkills: m.PreferredSkills,
		ExperienceWeight: m.ExperienceWeight, LocationWeight: m.LocationWeight,
		DomainWeight: m.DomainWeight, SkillsWeight: m.SkillsWeight(),
		GeneratedAt: m.GeneratedAt, ModelVersion: m.ModelVersion,
	}
}

type matchDTO struct {
	ID           string           `json:"id"`
	CandidateID  string           `json:"candidate_id"`
	JobID        string           `json:"job_id"`
	Score        int              `json:"score"`
	Breakdown    domain.Breakdown `json:"breakdown"`
	Explanation  string           `json:"explanation,omitempty"`
	Gaps         []domain.Gap     `json:"gaps,omitempty"`
	Status       string           `json:"status"`
	CalculatedAt time.Time        `json:"calculated_at"`
}

func toMatchDTOs(in []domain.Match) []matchDTO {
	out := make([]matchDTO, 0, len(in))
	for _, m := range in {
		out = append(out, matchDTO{
			ID: m.ID, CandidateID: m.CandidateID, JobID: m.JobID,
			Score: m.Score, Breakdown: m.Breakdown, Explanation: m.Explanation,
			Gaps: m.Gaps, Status: string(m.Status), CalculatedAt: m.CalculatedAt,
		})
	}
	return out
}
