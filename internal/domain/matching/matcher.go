package matching

import (
	"strings"
	"unicode"

	"next-gig/internal/domain/job"
	"next-gig/internal/domain/user"
)

// Matcher filters scraped jobs against a user's title/location preferences.
// Matching policy differs per source: boards flagged with an unreliable
// title field are matched on location only.
type Matcher struct {
	sources map[string]job.Source
}

func NewMatcher(sources []job.Source) *Matcher {
	bySource := make(map[string]job.Source, len(sources))
	for _, s := range sources {
		bySource[strings.ToLower(strings.TrimSpace(s.Name))] = s
	}
	return &Matcher{sources: bySource}
}

// Match returns the subset of jobs matching the user's preferences, with
// each job's Source field set to its originating source. An empty result is
// not an error. Users with empty title or location sets match nothing.
func (m *Matcher) Match(jobsBySource map[string][]job.RawJob, pref user.Preference) []job.RawJob {
	titles := lowerTerms(pref.JobTitles)
	locations := normalizeLocationTerms(pref.JobLocations)
	if len(titles) == 0 || len(locations) == 0 {
		return nil
	}

	ukWide := false
	for _, loc := range locations {
		if containsWord(loc, "uk") {
			ukWide = true
			break
		}
	}

	var matched []job.RawJob
	for source, jobs := range jobsBySource {
		reliableTitle := true
		if s, ok := m.sources[strings.ToLower(strings.TrimSpace(source))]; ok {
			reliableTitle = s.ReliableTitle
		}

		for _, j := range jobs {
			if !job.Valid(j) {
				continue
			}
			if reliableTitle && !anySubstring(titles, strings.ToLower(j.Title)) {
				continue
			}
			if !locationMatches(locations, ukWide, j.Location) {
				continue
			}
			j.Source = source
			matched = append(matched, j)
		}
	}
	return matched
}

func locationMatches(userLocations []string, ukWide bool, jobLocation string) bool {
	loc := NormalizeLocation(jobLocation)
	if loc == "" {
		return false
	}
	if anySubstring(userLocations, loc) {
		return true
	}
	// Remote and country-wide postings match any user with a UK-wide term.
	if ukWide && (strings.Contains(loc, "remote") || containsWord(loc, "uk")) {
		return true
	}
	return false
}

// containsWord reports whether word appears in s as a whole word, so "uk"
// is found in "london, uk" but not inside "dukinfield".
func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func lowerTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func normalizeLocationTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = NormalizeLocation(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func anySubstring(needles []string, haystack string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
