package internal

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain table", input: "form_submissions", expected: `"form_submissions"`},
		{name: "schema qualified", input: "forms.submissions", expected: pgx.Identifier{"forms", "submissions"}.Sanitize()},
		{name: "trim quotes and spaces", input: `  "a" . "b" .. "c"  `, expected: pgx.Identifier{"a", "b", "c"}.Sanitize()},
		{name: "injection attempt stays quoted", input: `x"; DROP TABLE y; --`, expected: pgx.Identifier{`x"; DROP TABLE y; --`}.Sanitize()},
		{name: "all empty parts fallback", input: "...", expected: pgx.Identifier{"..."}.Sanitize()},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeIdentifier(tt.input))
		})
	}
}
