package dedup

import (
	"regexp"
	"slices"
	"strings"
)

var validEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var gmailDomains = []string{"gmail.com", "googlemail.com"}

// DefaultKnownDomains is used to repair addresses that lost their "@".
var DefaultKnownDomains = []string{
	"gmail.com",
	"googlemail.com",
	"hotmail.com",
	"hotmail.co.uk",
	"outlook.com",
	"live.com",
	"yahoo.com",
	"yahoo.co.uk",
	"icloud.com",
	"me.com",
	"aol.com",
	"protonmail.com",
	"proton.me",
	"gmx.de",
	"web.de",
}

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return validEmail.MatchString(strings.TrimSpace(email))
}

// Canonicalizer computes dedup keys for subscriber emails.
type Canonicalizer struct {
	domains []string
}

// NewCanonicalizer creates a Canonicalizer repairing against knownDomains, longest first.
func NewCanonicalizer(knownDomains []string) *Canonicalizer {
	domains := make([]string, 0, len(knownDomains))
	for _, d := range knownDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && !slices.Contains(domains, d) {
			domains = append(domains, d)
		}
	}
	slices.SortStableFunc(domains, func(a, b string) int { return len(b) - len(a) })
	return &Canonicalizer{domains: domains}
}

// Canonicalize returns the key two addresses share when they reach the same mailbox.
//
// A missing "@" is repaired when the address ends in a known domain with a non-empty local part
// before it. Everything is lowercased. Gmail and Googlemail addresses lose any +tag and every dot
// in the local part, and Googlemail becomes gmail.com.
func (c *Canonicalizer) Canonicalize(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}

	if !strings.Contains(email, "@") {
		email = c.repair(email)
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]

	if slices.Contains(gmailDomains, domain) {
		if plus := strings.Index(local, "+"); plus >= 0 {
			local = local[:plus]
		}
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	}

	return local + "@" + domain
}

func (c *Canonicalizer) repair(email string) string {
	for _, domain := range c.domains {
		if local, ok := strings.CutSuffix(email, domain); ok && local != "" {
			return local + "@" + domain
		}
	}
	return email
}

// Canonicalize is a convenience for one-off keys.
func Canonicalize(email string, knownDomains []string) string {
	return NewCanonicalizer(knownDomains).Canonicalize(email)
}
