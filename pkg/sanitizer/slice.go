package sanitizer

// SanitizeSlice applies strategy to every value and drops empty results and
// duplicates. The first occurrence keeps its position.
func SanitizeSlice(values []string, strategy Strategy) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

func SanitizeTags(tags []string) []string {
	return SanitizeSlice(tags, SanitizeTag)
}
