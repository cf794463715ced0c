package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"ordinary name", "Jane Doe", true},
		{"single letter", "J", false},
		{"empty", "", false},
		{"long hex blob", "deadbeefdeadbeefdeadbeefdeadbeef", false},
		{"long non-hex is fine", "Maximiliana Fernanda de la Cruz", true},
		{"digits only", "12345", false},
		{"one letter among digits", "a1234", false},
		{"mostly punctuation", "J@#$%^&*()!", false},
		{"accented", "José García", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, validName(tc.input), "input %q", tc.input)
		})
	}
}

func TestNameFromHeader(t *testing.T) {
	t.Parallel()
	cv := "\n  Jane Doe  \nSenior Engineer\njane@example.com\n"
	assert.Equal(t, "Jane Doe", nameFromHeader(cv))

	// Lines mentioning contact fields never qualify.
	cv = "Email Address\nPhone Number\nMary Ann Smith\n"
	assert.Equal(t, "Mary Ann Smith", nameFromHeader(cv))

	// Too many tokens, lowercase start, or too few letters all miss.
	assert.Equal(t, "", nameFromHeader("one two three four five six\njane doe\nA B\n"))

	// Only the first ten non-empty lines are scanned.
	deep := strings.Repeat("x\n", 10) + "Jane Doe\n"
	assert.Equal(t, "", nameFromHeader(deep))
}
