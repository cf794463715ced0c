package usecase

import (
	"strings"
	"unicode"
)

// headerStopWords disqualify a CV line from being a person's name.
var headerStopWords = []string{
	"email", "phone", "address", "resume", "cv",
	"experience", "education", "skills", "objective",
}

// validName rejects garbage names that models occasionally hallucinate from
// noisy CV text.
func validName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return false
	}
	if len(name) > 30 && isHexOnly(name) {
		return false
	}
	var alpha, alnum, total int
	for _, r := range name {
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alpha < 2 {
		return false
	}
	// More than half punctuation or symbols is not a name.
	return (total-alnum)*2 <= total
}

func isHexOnly(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			seen = true
		default:
			return false
		}
	}
	return seen
}

// nameFromHeader scans the top of the CV text for a line that looks like a
// person's name. Used as a fallback when the model returns an invalid name.
func nameFromHeader(cvText string) string {
	if len(cvText) > 2000 {
		cvText = cvText[:2000]
	}
	var lines []string
	for _, line := range strings.Split(cvText, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 10 {
		lines = lines[:10]
	}
scan:
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) < 2 || len(tokens) > 4 {
			continue
		}
		first := []rune(tokens[0])
		if !unicode.IsUpper(first[0]) {
			continue
		}
		var alpha int
		for _, r := range line {
			if unicode.IsLetter(r) {
				alpha++
			}
		}
		if alpha < 4 {
			continue
		}
		lower := strings.ToLower(line)
		for _, stop := range headerStopWords {
			if strings.Contains(lower, stop) {
				continue scan
			}
		}
		return line
	}
	return ""
}
