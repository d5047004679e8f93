package store

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns a search term into a lowercase "contains" pattern for
// LIKE ... ESCAPE '\'. The boolean is false when the term is blank.
func LikePattern(term string) (string, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", false
	}
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%", true
}

// NormalizeSearch lowercases and trims a term for backends doing substring matching themselves.
func NormalizeSearch(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
