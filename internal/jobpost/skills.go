package jobpost

import "strings"

// NormalizeSkills turns free-form skills input into a trimmed list of
// non-empty skills, keeping the original order. raw may be nil, a comma
// separated string, a []string or a decoded JSON array. Repeated skills are
// kept once, at their first position. A nil result means no skills were
// recorded; callers must not distinguish it from an empty list.
func NormalizeSkills(raw interface{}) []string {
	var candidates []string
	switch v := raw.(type) {
	case string:
		candidates = strings.Split(v, ",")
	case []string:
		candidates = v
	case []interface{}:
		for _, c := range v {
			if s, ok := c.(string); ok {
				candidates = append(candidates, s)
			}
		}
	}
	var skills []string
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		skills = append(skills, c)
	}
	return skills
}
