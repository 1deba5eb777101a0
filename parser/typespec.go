package parser

import (
	"regexp"
	"strings"
)

var lifetimeRe = regexp.MustCompile(`'\w+\s*`)

// ParseType splits a type spelling into its indirections and base name.
// It never fails: anything that is not a recognized sigil is the base.
func ParseType(spelling string) TypeSpec {
	spelling = strings.Join(strings.Fields(spelling), " ")

	ts := TypeSpec{Spelling: spelling}

	s := lifetimeRe.ReplaceAllString(spelling, "")
	s = strings.TrimSpace(s)

	for {
		switch {
		case strings.HasPrefix(s, "&"):
			s = strings.TrimSpace(s[1:])
			var ind Indirection
			if rest, ok := cutKeyword(s, "mut"); ok {
				ind.Mutable = true
				s = rest
			}
			ts.Pointers = append(ts.Pointers, ind)

		case strings.HasPrefix(s, "*"):
			s = strings.TrimSpace(s[1:])
			var ind Indirection
			if rest, ok := cutKeyword(s, "mut"); ok {
				ind.Mutable = true
				s = rest
			} else if rest, ok := cutKeyword(s, "const"); ok {
				s = rest
			}
			ts.Pointers = append(ts.Pointers, ind)

		default:
			ts.Base = s
			return ts
		}
	}
}

// cutKeyword removes a leading keyword followed by whitespace or a sigil.
func cutKeyword(s, kw string) (string, bool) {
	if !strings.HasPrefix(s, kw) {
		return s, false
	}

	rest := s[len(kw):]
	if rest == "" {
		return s, false
	}

	switch rest[0] {
	case ' ', '\t', '&', '*', '[', '(':
		return strings.TrimSpace(rest), true
	}

	return s, false
}
