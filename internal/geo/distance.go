package geo

import (
	"context"
	"math"
	"sort"
	"strings"

	"next-gig/internal/domain/job"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between two points in
// kilometers. Missing coordinates yield +Inf, which never satisfies a
// finite radius filter.
func Distance(a, b *Coordinates) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RadiusMatch is a job together with its distance from the search origin.
type RadiusMatch struct {
	Job        job.RawJob
	DistanceKm float64
}

// WithinRadius filters jobs to those whose title contains the search title
// (case-insensitive) and whose location resolves to within maxKm of the
// origin, sorted ascending by distance. Jobs whose location cannot be
// geocoded are silently excluded; an unresolvable origin matches nothing.
func (g *Geocoder) WithinRadius(ctx context.Context, title, origin string, jobs []job.RawJob, maxKm float64) []RadiusMatch {
	originCoords := g.Geocode(ctx, origin)
	if originCoords == nil {
		g.logger.Printf("geocode status=skip reason=unresolvable_origin origin=%q", origin)
		return nil
	}

	titleLower := strings.ToLower(strings.TrimSpace(title))

	matched := make([]RadiusMatch, 0)
	for _, j := range jobs {
		if titleLower != "" && !strings.Contains(strings.ToLower(j.Title), titleLower) {
			continue
		}
		jobCoords := g.Geocode(ctx, j.Location)
		if jobCoords == nil {
			continue
		}
		d := Distance(originCoords, jobCoords)
		if d > maxKm {
			continue
		}
		matched = append(matched, RadiusMatch{Job: j, DistanceKm: math.Round(d*100) / 100})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].DistanceKm < matched[j].DistanceKm
	})
	return matched
}
