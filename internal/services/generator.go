package services

import "strings"

// MaxCandidates caps the number of names produced for one seed term
const MaxCandidates = 12

var nameSuffixes = []string{
	"Co", "Inc", "LLC", "Group", "Solutions", "Services", "Systems",
	"Tech", "Labs", "Works", "Hub", "Pro", "Plus", "Edge",
}

var namePrefixes = []string{"Smart", "Quick", "Prime", "Elite"}

// GenerateCandidates expands a seed term into an ordered, deduplicated list of
// business name variants. A term with no alphanumeric characters yields an
// empty list.
func GenerateCandidates(term string) []string {
	clean := sanitizeTerm(term)
	if clean == "" {
		return []string{}
	}

	variants := make([]string, 0, 1+len(nameSuffixes)+len(namePrefixes)+2)
	variants = append(variants, clean)
	for _, suffix := range nameSuffixes {
		variants = append(variants, clean+suffix)
	}
	for _, prefix := range namePrefixes {
		variants = append(variants, prefix+clean)
	}
	variants = append(variants, "The"+clean, clean+"Ventures")

	names := make([]string, 0, MaxCandidates)
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		names = append(names, v)
		if len(names) == MaxCandidates {
			break
		}
	}

	return names
}

func sanitizeTerm(term string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(term) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
