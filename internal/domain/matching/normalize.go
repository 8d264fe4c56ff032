package matching

import "strings"

// locationReplacements is applied in order; later entries may rely on
// earlier ones having already run.
var locationReplacements = [][2]string{
	{"united kingdom", "uk"},
	{"greater london", "london"},
	{"city of london", "london"},
	{"greater manchester", "manchester"},
	{"tyne and wear", "newcastle"},
	{"west midlands", "birmingham"},
}

// NormalizeLocation canonicalizes a free-text location for substring
// matching: lower-case, trim, then a fixed ordered list of UK synonym
// replacements. Idempotent.
func NormalizeLocation(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	for _, r := range locationReplacements {
		loc = strings.ReplaceAll(loc, r[0], r[1])
	}
	return loc
}
