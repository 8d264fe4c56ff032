package matching

// FallbackResolver expands a primary location into the set of commuter-belt
// locations considered equivalent to it. The table is a curated allow-list,
// injected so deployments can extend it without code changes.
type FallbackResolver struct {
	regions map[string][]string
}

func NewFallbackResolver(regions map[string][]string) *FallbackResolver {
	if regions == nil {
		regions = map[string][]string{}
	}
	norm := make(map[string][]string, len(regions))
	for city, towns := range regions {
		key := NormalizeLocation(city)
		if key == "" {
			continue
		}
		list := make([]string, 0, len(towns))
		for _, t := range towns {
			if nt := NormalizeLocation(t); nt != "" {
				list = append(list, nt)
			}
		}
		norm[key] = list
	}
	return &FallbackResolver{regions: norm}
}

// Fallbacks returns the satellite towns for a primary location plus the
// normalized primary itself. Never empty: unknown primaries yield a
// singleton set.
func (r *FallbackResolver) Fallbacks(primary string) []string {
	p := NormalizeLocation(primary)

	var towns []string
	if r != nil {
		towns = r.regions[p]
	}

	out := make([]string, 0, len(towns)+1)
	seen := make(map[string]struct{}, len(towns)+1)
	for _, t := range towns {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if _, ok := seen[p]; !ok {
		out = append(out, p)
	}
	return out
}
