package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCompanySlug(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"bco-2-58.cqhub.app", "bco-2-58"},
		{"hhc-libertybase.cqhub.app", "hhc-libertybase"},
		{"BCO-2-58.CQHUB.APP", "bco-2-58"},
		{"bco-2-58.cqhub.app:8080", "bco-2-58"},
		{"cqhub.app", ""},
		{"www.cqhub.app", ""},
		{"api.cqhub.app", ""},
		{"admin.cqhub.app", ""},
		{"otherdomain.com", ""},
		{"cqhub.app.evil.com", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractCompanySlug(tt.host, "cqhub.app"), "host %s", tt.host)
	}
}

func TestValidateSlug(t *testing.T) {
	valid := []string{"bco-2-58", "hhc", "alpha-company", "a1b"}
	for _, s := range valid {
		assert.True(t, ValidateSlug(s), "expected %q to be valid", s)
	}

	invalid := []string{
		"ab",
		"-leading",
		"trailing-",
		"double--hyphen",
		"UPPER",
		"under_score",
		"waytoolongwaytoolongwaytoolongwaytoolongwaytoolongx",
	}
	for _, s := range invalid {
		assert.False(t, ValidateSlug(s), "expected %q to be invalid", s)
	}
}
