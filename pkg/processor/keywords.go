package processor

import (
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

// Matches reports whether token abbreviates keyword ("sw" -> "switchport").
func Matches(token, keyword string) bool {
	return token != "" && strings.HasPrefix(strings.ToLower(keyword), strings.ToLower(token))
}

// MatchesAll reports whether the leading tokens abbreviate keywords in
// order, so "sw t a v a" matches "switchport trunk allowed vlan add".
func MatchesAll(tokens []string, keywords ...string) bool {
	if len(tokens) < len(keywords) {
		return false
	}
	for i, kw := range keywords {
		if !Matches(tokens[i], kw) {
			return false
		}
	}
	return true
}

// MatchesExactly is MatchesAll with no trailing tokens allowed.
func MatchesExactly(tokens []string, keywords ...string) bool {
	return len(tokens) == len(keywords) && MatchesAll(tokens, keywords...)
}

// FreeText joins the tokens of a free-text argument and strips shell-style
// quoting: `"my uplink"` -> `my uplink`. Unbalanced quotes are kept verbatim.
func FreeText(tokens []string) string {
	raw := strings.Join(tokens, " ")
	words, err := shellquote.Split(raw)
	if err != nil {
		return raw
	}
	return strings.Join(words, " ")
}

// Quote renders free text the way vendors that require quoting show it.
func Quote(text string) string {
	if strings.ContainsAny(text, " \t") {
		return `"` + text + `"`
	}
	return text
}
