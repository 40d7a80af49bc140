package lexical

import "strings"

// minTokenLen is the shortest token worth matching on.
const minTokenLen = 3

// Tokens lowercases text, strips non-alphanumeric characters, and
// returns the unique tokens of length >= 3 in first-seen order.
func Tokens(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < minTokenLen {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// singularize strips a trailing "s" from tokens longer than 4 characters.
// A naive rule, but enough to match "infections" against "infection".
func singularize(tok string) (string, bool) {
	if len(tok) > 4 && strings.HasSuffix(tok, "s") {
		return tok[:len(tok)-1], true
	}
	return tok, false
}
