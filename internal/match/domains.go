package match

import "strings"

// domainPatterns maps free-text fragments found in a job posting to canonical
// domain tokens. Patterns with surrounding spaces only match whole words; the
// probe text is padded accordingly.
var domainPatterns = []struct {
	pattern string
	token   string
}{
	{"mobile", "mobile"},
	{" ios ", "mobile"},
	{"android", "mobile"},
	{"react native", "mobile"},
	{"flutter", "mobile"},
	{"frontend", "web"},
	{"front-end", "web"},
	{"front end", "web"},
	{" web ", "web"},
	{"react", "web"},
	{"angular", "web"},
	{"vue", "web"},
	{"backend", "backend"},
	{"back-end", "backend"},
	{"back end", "backend"},
	{" api ", "backend"},
	{"microservice", "backend"},
	{"server-side", "backend"},
	{"devops", "devops"},
	{" sre ", "devops"},
	{"site reliability", "devops"},
	{"infrastructure", "devops"},
	{"kubernetes", "devops"},
	{"data engineer", "data"},
	{"data analy", "data"},
	{"data pipeline", "data"},
	{" etl ", "data"},
	{"big data", "data"},
	{"data warehouse", "data"},
	{"machine learning", "ml"},
	{"deep learning", "ml"},
	{" ml ", "ml"},
	{" ai ", "ml"},
	{"artificial intelligence", "ml"},
	{" nlp ", "ml"},
	{"security", "security"},
	{"penetration test", "security"},
	{"appsec", "security"},
	{"infosec", "security"},
	{"fintech", "fintech"},
	{"banking", "fintech"},
	{"payment", "fintech"},
	{"trading", "fintech"},
	{"financial services", "fintech"},
	{"healthcare", "healthcare"},
	{"health tech", "healthcare"},
	{"medical", "healthcare"},
	{"pharma", "healthcare"},
	{"clinical", "healthcare"},
	{"e-commerce", "ecommerce"},
	{"ecommerce", "ecommerce"},
	{"marketplace", "ecommerce"},
	{"retail", "ecommerce"},
	{"saas", "saas"},
	{"gaming", "gaming"},
	{"game dev", "gaming"},
	{"unity", "gaming"},
	{"unreal", "gaming"},
	{"embedded", "embedded"},
	{"firmware", "embedded"},
	{" iot ", "embedded"},
	{"blockchain", "blockchain"},
	{"web3", "blockchain"},
	{"crypto", "blockchain"},
	{"smart contract", "blockchain"},
}

// jobDescriptionProbe is how much of the description participates in domain
// keyword derivation.
const jobDescriptionProbe = 2000

// jobDomainKeywords derives canonical domain tokens from title, department
// and the head of the description.
func jobDomainKeywords(j JobProfile) map[string]struct{} {
	desc := j.Description
	if len(desc) > jobDescriptionProbe {
		desc = desc[:jobDescriptionProbe]
	}
	text := " " + strings.ToLower(j.Title+" "+j.Department+" "+desc) + " "
	found := make(map[string]struct{})
	for _, dp := range domainPatterns {
		if strings.Contains(text, dp.pattern) {
			found[dp.token] = struct{}{}
		}
	}
	return found
}

// domainScore rates overlap between job domain keywords and the candidate's
// domains and roles.
func domainScore(c CandidateProfile, j JobProfile) int {
	keywords := jobDomainKeywords(j)
	if len(keywords) == 0 {
		return 50
	}
	candidate := make([]string, 0, len(c.Matrix.Domains)+len(c.Roles))
	for _, d := range c.Matrix.Domains {
		candidate = append(candidate, strings.ToLower(d))
	}
	for _, r := range c.Roles {
		candidate = append(candidate, strings.ToLower(r))
	}

	matched := 0
	for k := range keywords {
		for _, tok := range candidate {
			if tok == k || strings.Contains(tok, k) {
				matched++
				break
			}
		}
	}
	ratio := float64(matched) / float64(len(keywords))
	switch {
	case ratio >= 0.5:
		return 100
	case ratio >= 0.25:
		return 75
	case matched > 0:
		return 60
	case len(candidate) == 0:
		return 40
	}
	return 30
}
