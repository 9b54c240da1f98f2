package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "lowercasing", input: "PaRiS", expected: "paris"},
		{name: "surrounding whitespace", input: "  paris\t", expected: "paris"},
		{name: "inner whitespace", input: "new york", expected: "newyork"},
		{name: "newlines", input: "par\nis\r\n", expected: "paris"},
		{name: "semicolons", input: "paris;;", expected: "paris"},
		{name: "unicode kept", input: "Zürich", expected: "zürich"},
		{name: "only noise", input: " ;\n ", expected: ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, NormalizeAnswer(test.input))
		})
	}
}

func TestNormalizeAnswerEquivalence(t *testing.T) {
	variants := []string{"Paris", "paris", " paris ", "Paris;", "PAR IS"}
	for _, v := range variants {
		assert.Equal(t, "paris", NormalizeAnswer(v), "variant %q", v)
	}
}
