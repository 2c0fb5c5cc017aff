package search

// Synonyms maps everyday problem words to the service names technicians
// register under.
var Synonyms = map[string][]string{
	"plumber":         {"plumbing"},
	"leak":            {"plumbing"},
	"pipe":            {"plumbing"},
	"tap":             {"plumbing"},
	"drain":           {"plumbing"},
	"electric":        {"electrician"},
	"wiring":          {"electrician"},
	"switch":          {"electrician"},
	"fan":             {"electrician"},
	"wood":            {"carpenter"},
	"furniture":       {"carpenter"},
	"door":            {"carpenter"},
	"ac":              {"ac repair"},
	"air conditioner": {"ac repair"},
	"cooling":         {"ac repair"},
	"handyman":        {"general"},
}

func GetSynonyms(term string) []string {
	if term == "" {
		return []string{}
	}
	if v, ok := Synonyms[term]; ok {
		out := make([]string, 0, len(v))
		out = append(out, v...)
		return out
	}
	return []string{}
}
