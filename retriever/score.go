package retriever

import (
	"sort"
	"strings"
	"unicode"

	"github.com/c360studio/fwexpert/framework"
)

// Scoring weights for lexical overlap between the request description
// and a knowledge entry.
const (
	weightKeyword     = 3
	weightName        = 2
	weightDescription = 1
)

// stopwords are dropped from descriptions before matching. Kept small on
// purpose: test descriptions are short and most words carry signal.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"in": true, "is": true, "it": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "to": true, "via": true,
	"with": true,
}

// tokenize lowercases s, splits on non-alphanumeric runs and drops
// stopwords and single characters.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// tokenSet builds a membership set from tokens.
func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// overlap counts how many tokens of text appear in the query set.
func overlap(query map[string]bool, text string) int {
	n := 0
	for _, t := range tokenize(text) {
		if query[t] {
			n++
		}
	}
	return n
}

type scored struct {
	name  string
	score int
}

// rankPatterns orders patterns by lexical relevance to the query.
// Ties break on name so identical inputs always rank identically.
func rankPatterns(query map[string]bool, patterns []framework.Pattern) []framework.Pattern {
	entries := make([]scored, len(patterns))
	byName := make(map[string]framework.Pattern, len(patterns))

	for i, p := range patterns {
		score := weightName * overlap(query, p.Name)
		score += weightDescription * overlap(query, p.Description)
		for _, kw := range p.Keywords {
			score += weightKeyword * overlap(query, kw)
		}
		entries[i] = scored{name: p.Name, score: score}
		byName[p.Name] = p
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].name < entries[j].name
	})

	ranked := make([]framework.Pattern, len(entries))
	for i, e := range entries {
		ranked[i] = byName[e.name]
	}
	return ranked
}

// rankClasses orders class names by lexical relevance to the query.
// Classes required by already-selected patterns rank above everything
// else, preserving the pattern's own ordering of requirements.
func rankClasses(query map[string]bool, classes map[string]framework.ClassInfo, required []string) []string {
	requiredRank := make(map[string]int, len(required))
	for i, name := range required {
		if _, ok := classes[name]; !ok {
			continue
		}
		if _, seen := requiredRank[name]; !seen {
			requiredRank[name] = i
		}
	}

	rest := make([]scored, 0, len(classes))
	for name, info := range classes {
		if _, ok := requiredRank[name]; ok {
			continue
		}
		score := weightName * overlap(query, name)
		score += weightDescription * overlap(query, info.Purpose)
		rest = append(rest, scored{name: name, score: score})
	}

	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].score != rest[j].score {
			return rest[i].score > rest[j].score
		}
		return rest[i].name < rest[j].name
	})

	ordered := make([]string, 0, len(requiredRank)+len(rest))
	for _, name := range required {
		if rank, ok := requiredRank[name]; ok && rank >= 0 {
			ordered = append(ordered, name)
			requiredRank[name] = -1
		}
	}
	for _, e := range rest {
		ordered = append(ordered, e.name)
	}
	return ordered
}
