package bridge

import (
	"fmt"
	"strings"
	"unicode"
)

// Subject is a dot-separated NATS subject. Publish subjects are literal;
// subscribe subjects may use the * and > wildcards.
type Subject string

// String returns the string representation of the subject.
func (s Subject) String() string { return string(s) }

// Validate checks s as a literal publish subject: non-empty tokens
// separated by dots, no whitespace, no wildcards.
func (s Subject) Validate() error {
	return validateTokens(string(s), false)
}

// ValidatePattern checks s as a subscribe subject. * may stand in for
// any single token; > matches one or more trailing tokens and must be
// the final token.
func (s Subject) ValidatePattern() error {
	return validateTokens(string(s), true)
}

func validateTokens(s string, wildcards bool) error {
	if s == "" {
		return ErrInvalidSubject
	}
	tokens := strings.Split(s, ".")
	for i, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("%w: empty token in %q", ErrInvalidSubject, s)
		}
		if strings.ContainsAny(tok, " \t\n\r") {
			return fmt.Errorf("%w: whitespace in %q", ErrInvalidSubject, s)
		}
		if !wildcards && strings.ContainsAny(tok, "*>") {
			return fmt.Errorf("%w: wildcard in publish subject %q", ErrInvalidSubject, s)
		}
		if strings.Contains(tok, ">") && (tok != ">" || i != len(tokens)-1) {
			return fmt.Errorf("%w: > must be the final token in %q", ErrInvalidSubject, s)
		}
		if strings.Contains(tok, "*") && tok != "*" {
			return fmt.Errorf("%w: * must be a whole token in %q", ErrInvalidSubject, s)
		}
	}
	return nil
}

// Match reports whether the pattern s matches the literal subject lit,
// using NATS token rules: * matches exactly one token, > matches one or
// more trailing tokens.
func (s Subject) Match(lit Subject) bool {
	pt := strings.Split(string(s), ".")
	lt := strings.Split(string(lit), ".")

	for i, tok := range pt {
		switch tok {
		case ">":
			return i == len(pt)-1 && len(lt) > i
		case "*":
			if i >= len(lt) {
				return false
			}
		default:
			if i >= len(lt) || lt[i] != tok {
				return false
			}
		}
	}
	return len(pt) == len(lt)
}

// sanitizeSubject cleans a subject for use as a queue group name.
func sanitizeSubject(s string) string {
	// Replace non-alnum with underscores, collapse repeats, lowercase.
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "unnamed"
	}
	if len(out) > 48 {
		return out[:48]
	}
	return out
}
