package session

import (
	"strings"
	"unicode"
)

var leadingArticles = []string{"the ", "a ", "an "}

// AnswersMatch compares a spoken or typed response to the expected answer,
// ignoring case, punctuation, question phrasing and leading articles.
func AnswersMatch(response, answer string) bool {
	r := normalizeAnswer(response)
	a := normalizeAnswer(answer)
	if r == "" || a == "" {
		return false
	}
	if r == a {
		return true
	}
	if len(r) >= 4 && len(a) >= 4 {
		return strings.Contains(r, a) || strings.Contains(a, r)
	}
	return false
}

func normalizeAnswer(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	for _, prefix := range []string{"what is ", "who is ", "what are ", "who are ", "where is "} {
		out = strings.TrimPrefix(out, prefix)
	}
	for _, art := range leadingArticles {
		out = strings.TrimPrefix(out, art)
	}
	return out
}
