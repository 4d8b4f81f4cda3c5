package dedup

import "testing"

func TestCanonicalize(t *testing.T) {
	known := []string{"example.com", "gmail.com", "mail.com"}

	tests := []struct {
		name     string
		email    string
		domains  []string
		expected string
	}{
		{name: "Gmail Dots And Tag", email: "Jane.Doe+promo@GMAIL.com", domains: known, expected: "janedoe@gmail.com"},
		{name: "Gmail Plain", email: "janedoe@gmail.com", domains: known, expected: "janedoe@gmail.com"},
		{name: "Googlemail", email: "jane.doe@googlemail.com", domains: known, expected: "janedoe@gmail.com"},
		{name: "Other Domain Keeps Dots", email: " First.Last+x@Example.com ", domains: known, expected: "first.last+x@example.com"},
		{name: "Repair Missing At", email: "userexample.com", domains: known, expected: "user@example.com"},
		{name: "Repair Unknown Domain", email: "userexample.com", domains: []string{"gmail.com"}, expected: "userexample.com"},
		{name: "Repair Longest Domain", email: "bobgmail.com", domains: known, expected: "bob@gmail.com"},
		{name: "Gmail Without Known Domains", email: "j.doe+dj@gmail.com", domains: nil, expected: "jdoe@gmail.com"},
		{name: "Repair Needs Local Part", email: "example.com", domains: known, expected: "example.com"},
		{name: "Empty", email: "  ", domains: known, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.email, tt.domains); got != tt.expected {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.email, got, tt.expected)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{email: "dj@example.com", valid: true},
		{email: "dj@localhost", valid: false},
		{email: "djexample.com", valid: false},
		{email: "dj @example.com", valid: false},
		{email: "", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.valid {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.valid)
			}
		})
	}
}
