package retrieval

import (
	"sort"
	"strings"
)

// querySynonyms groups phonebook terms people mix freely in queries.
// Matching any term of a group appends the rest, so "telefonszám" also
// reaches passages phrased with "telefon" and vice versa.
var querySynonyms = map[string][]string{
	"dékán":   {"dekan", "dékan"},
	"tanszék": {"department", "osztály", "tanszékvezető"},
	"kar":     {"faculty", "kari"},
	"intézet": {"institute", "institut"},
	"telefon": {"phone", "tel", "telefonszám"},
	"email":   {"e-mail", "e-mail cím", "cím"},
	"név":     {"name"},
}

// stopWords are Hungarian function words that carry no retrieval signal.
var stopWords = map[string]bool{
	"a": true, "az": true, "azt": true, "van": true, "volt": true,
	"lesz": true, "ki": true, "mi": true, "hol": true, "melyik": true,
	"mely": true, "hogy": true, "mint": true, "és": true, "vagy": true,
	"de": true, "is": true,
}

// NormalizeQuery lowercases and collapses whitespace. Accents are kept;
// the multilingual embedding model handles them better than a stripped
// form would.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// ExtractKeywords drops stop words and short tokens. Used for the lexical
// fallback query so bleve is not fed connective words.
func ExtractKeywords(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if stopWords[w] || len([]rune(w)) <= 2 {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// ExpandSynonyms appends the synonym group members for every group term
// found in the query. Appending instead of substituting keeps the
// original phrasing dominant in the embedding.
func ExpandSynonyms(query string) string {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return normalized
	}

	seen := make(map[string]bool)
	for _, w := range strings.Fields(normalized) {
		seen[w] = true
	}

	canonicals := make([]string, 0, len(querySynonyms))
	for canonical := range querySynonyms {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	var extra []string
	for _, canonical := range canonicals {
		group := append([]string{canonical}, querySynonyms[canonical]...)
		matched := false
		for _, term := range group {
			if strings.Contains(normalized, term) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, term := range group {
			if !seen[term] && !strings.Contains(normalized, term) {
				seen[term] = true
				extra = append(extra, term)
			}
		}
	}

	if len(extra) == 0 {
		return normalized
	}
	return normalized + " " + strings.Join(extra, " ")
}
