package search

import (
	"strings"
	"unicode"
)

const maxVariants = 10

type QueryContext struct {
	Original   string
	Normalized string
	Variants   []string
}

// NormalizeQuery lowercases, keeps letters, digits and single spaces.
func NormalizeQuery(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}

	b := strings.Builder{}
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ExpandQuery returns the query itself followed by the service names its
// words and two-word phrases map to.
func ExpandQuery(normalized string) []string {
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return []string{}
	}

	out := make([]string, 0, maxVariants)
	seen := make(map[string]struct{}, maxVariants)
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(normalized)
	for _, syn := range GetSynonyms(normalized) {
		add(syn)
	}

	words := strings.Fields(normalized)
	for i, w := range words {
		for _, syn := range GetSynonyms(w) {
			add(syn)
		}
		if i+1 < len(words) {
			for _, syn := range GetSynonyms(w + " " + words[i+1]) {
				add(syn)
			}
		}
	}

	if len(out) > maxVariants {
		out = out[:maxVariants]
	}
	return out
}

func ProcessQuery(input string) QueryContext {
	qc := QueryContext{Original: input, Normalized: NormalizeQuery(input)}
	qc.Variants = ExpandQuery(qc.Normalized)
	return qc
}

// MatchesServices reports whether any service name contains any variant,
// case-insensitively. No variants matches everything.
func MatchesServices(serviceNames []string, variants []string) bool {
	if len(variants) == 0 {
		return true
	}
	for _, name := range serviceNames {
		name = strings.ToLower(name)
		for _, v := range variants {
			if strings.Contains(name, v) {
				return true
			}
		}
	}
	return false
}
