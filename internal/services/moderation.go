package services

import (
	"strings"
	"unicode"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
)

// defaultBlockedTerms are rejected in report and confirmation text regardless of config.
var defaultBlockedTerms = []string{
	"kill",
	"murder",
	"rape",
	"shoot",
	"stab",
	"bomb",
}

var obfuscations = strings.NewReplacer(
	"@", "a",
	"4", "a",
	"3", "e",
	"!", "i",
	"1", "i",
	"0", "o",
	"$", "s",
	"5", "s",
	"7", "t",
	"+", "t",
)

// ContentScreener rejects abusive text in user-submitted reports and comments.
type ContentScreener struct {
	terms []string
}

// NewContentScreener builds a screener from the default terms plus extra.
func NewContentScreener(extra []string) *ContentScreener {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range append(append([]string{}, defaultBlockedTerms...), extra...) {
		t = CleanText(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return &ContentScreener{terms: terms}
}

// CleanText lowercases, undoes common character substitutions, strips
// non-letters and collapses repeated letters ("K1LLL" -> "kil").
func CleanText(text string) string {
	cleaned := obfuscations.Replace(strings.ToLower(text))

	var b strings.Builder
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(collapseRepeats(b.String())), " ")
}

func collapseRepeats(text string) string {
	var b strings.Builder
	var last rune
	for i, r := range text {
		if i > 0 && r == last && unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

// Matches returns the blocked terms found in text. Single words match whole words only,
// so "skill" does not match "kill"; phrases match anywhere.
func (s *ContentScreener) Matches(text string) []string {
	if s == nil {
		return nil
	}
	cleaned := CleanText(text)
	words := make(map[string]struct{})
	for _, w := range strings.Fields(cleaned) {
		words[w] = struct{}{}
	}
	var found []string
	for _, term := range s.terms {
		if strings.Contains(term, " ") {
			if strings.Contains(cleaned, term) {
				found = append(found, term)
			}
			continue
		}
		if _, ok := words[term]; ok {
			found = append(found, term)
		}
	}
	return found
}

// Check returns a validation error naming field when value contains blocked terms.
func (s *ContentScreener) Check(fields map[string]string) error {
	var errs []apperr.FieldError
	for field, value := range fields {
		if len(s.Matches(value)) > 0 {
			errs = append(errs, apperr.FieldError{Field: field, Message: field + " contains prohibited language"})
		}
	}
	if len(errs) > 0 {
		return apperr.Validation("Content contains prohibited language", errs...)
	}
	return nil
}
