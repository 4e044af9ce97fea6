package taxdoc

import (
	"strings"
	"unicode"
)

// NormalizeIdent folds an extractor key to the form used for matching:
// lower case, letters and digits only. "Federal Income-Tax Withheld",
// "federal_income_tax_withheld" and "FederalIncomeTaxWithheld" all fold to
// "federalincometaxwithheld".
func NormalizeIdent(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return b.String()
}

// Canonicalizer resolves extractor key spellings onto the closed key set.
type Canonicalizer struct {
	exact      map[string]Key
	normalized map[string]Key
}

// NewCanonicalizer indexes known keys. When two known keys normalise to the
// same string, the first one listed wins.
func NewCanonicalizer(known []Key) *Canonicalizer {
	c := &Canonicalizer{
		exact:      make(map[string]Key, len(known)),
		normalized: make(map[string]Key, len(known)),
	}

	for _, k := range known {
		c.exact[string(k)] = k

		n := NormalizeIdent(string(k))
		if _, ok := c.normalized[n]; !ok {
			c.normalized[n] = k
		}
	}

	return c
}

// Lookup returns the known key for raw, or false if raw matches nothing.
// A nil Canonicalizer accepts every key verbatim.
func (c *Canonicalizer) Lookup(raw string) (Key, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if c == nil {
		return Key(raw), true
	}

	if k, ok := c.exact[raw]; ok {
		return k, true
	}

	k, ok := c.normalized[NormalizeIdent(raw)]

	return k, ok
}
