package user

import "strings"

// Preference is one user's search configuration.
type Preference struct {
	ID           string
	Email        string
	JobTitles    []string
	JobLocations []string
	Subscribed   bool
	Status       string
}

// SearchPair is one (title, location) combination to scrape for.
type SearchPair struct {
	Title    string
	Location string
}

// HasSearchCriteria reports whether the user can contribute search pairs.
// A user with no titles or no locations can never match a job.
func (p Preference) HasSearchCriteria() bool {
	return len(p.JobTitles) > 0 && len(p.JobLocations) > 0
}

// SearchPairs returns the cross product of the user's title and location
// sets, trimmed, skipping empties.
func (p Preference) SearchPairs() []SearchPair {
	out := make([]SearchPair, 0, len(p.JobTitles)*len(p.JobLocations))
	for _, t := range p.JobTitles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		for _, l := range p.JobLocations {
			l = strings.TrimSpace(l)
			if l == "" {
				continue
			}
			out = append(out, SearchPair{Title: t, Location: l})
		}
	}
	return out
}
