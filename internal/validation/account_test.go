package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var bitsDomains = []string{
	"hyderabad.bits-pilani.ac.in",
	"goa.bits-pilani.ac.in",
	"pilani.bits-pilani.ac.in",
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Exactly Min Length", "abcdef", false},
		{"Too Short", "abcde", true},
		{"Empty", "", true},
		{"Too Long", strings.Repeat("a", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, 6)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "test_user123", false},
		{"Dotted", "arjun.k", false},
		{"Too Short", "tu", true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
		{"Too Long", strings.Repeat("a", 31), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmailDomain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Hyderabad", "x@hyderabad.bits-pilani.ac.in", false},
		{"Upper Case Domain", "x@GOA.BITS-PILANI.AC.IN", false},
		{"Foreign Domain", "x@gmail.com", true},
		{"Lookalike Suffix", "x@evil.pilani.bits-pilani.ac.in.com", true},
		{"No At", "pilani.bits-pilani.ac.in", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmailDomain(tt.email, bitsDomains)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("f2021@pilani.bits-pilani.ac.in"))
	assert.Error(t, ValidateEmail("not an email"))
}
