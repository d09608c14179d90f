package services

import (
	"fmt"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

// Moderator screens user supplied text (usernames, bios, battle titles).
type Moderator struct {
	profanity *goaway.ProfanityDetector
	banWords  *goaway.ProfanityDetector
}

// NewModerator uses the default profanity dictionary plus an optional list of
// operator banned words.
func NewModerator(bannedWords []string) *Moderator {
	m := &Moderator{profanity: goaway.NewProfanityDetector()}
	if len(bannedWords) > 0 {
		lowered := make([]string, 0, len(bannedWords))
		for _, w := range bannedWords {
			lowered = append(lowered, strings.ToLower(w))
		}
		m.banWords = goaway.NewProfanityDetector().WithCustomDictionary(lowered, nil, nil)
	}
	return m
}

// Fold maps lookalike unicode to plain ASCII so "ｆｕｃｋ" and accented
// variants hit the dictionary.
func Fold(s string) string {
	return unidecode.Unidecode(norm.NFKC.String(s))
}

// Clean reports whether s passes moderation.
func (m *Moderator) Clean(s string) bool {
	folded := Fold(s)
	if m.profanity.IsProfane(folded) {
		return false
	}
	if m.banWords != nil && m.banWords.IsProfane(folded) {
		return false
	}
	return true
}

// Check returns ErrProfanity naming field when s is rejected.
func (m *Moderator) Check(field, s string) error {
	if s == "" || m == nil || m.Clean(s) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrProfanity, field)
}
