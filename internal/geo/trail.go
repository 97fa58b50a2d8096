package geo

import (
	"cmp"
	"slices"
)

// Position is a located sample reported by a device.
type Position struct {
	Coordinate
	// TS orders positions in time. Any monotonic unit works.
	TS     int64  `json:"ts"`
	Source string `json:"source"`
}

// TrailPoint is a trail entry standing in for one or more positions.
type TrailPoint struct {
	Coordinate
	TS       int64    `json:"ts"`
	Count    int      `json:"count"`
	RadiusKm float64  `json:"radiusKm"`
	Sources  []string `json:"sources"`
}

// Trail orders positions by time and folds every position that is at most
// minDistanceKm away from the current trail point into it. Folded positions
// increase the point's Count and widen its RadiusKm. The input is not modified.
func Trail(minDistanceKm float64, positions []Position) []TrailPoint {
	sorted := slices.Clone(positions)
	slices.SortStableFunc(sorted, func(a, b Position) int {
		return cmp.Compare(a.TS, b.TS)
	})

	var trail []TrailPoint
	for _, p := range sorted {
		if len(trail) > 0 {
			prev := &trail[len(trail)-1]
			d := DistanceKm(prev.Coordinate, p.Coordinate)
			if d <= minDistanceKm {
				prev.Count++
				prev.RadiusKm = max(prev.RadiusKm, d)
				if !slices.Contains(prev.Sources, p.Source) {
					prev.Sources = append(prev.Sources, p.Source)
				}
				continue
			}
		}
		trail = append(trail, TrailPoint{
			Coordinate: p.Coordinate,
			TS:         p.TS,
			Count:      1,
			Sources:    []string{p.Source},
		})
	}
	return trail
}
