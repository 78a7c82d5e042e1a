// README: Place lookup for itinerary enrichment (coordinates + maps links).
package geo

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// ResolvedPlace is a place lookup result attached to itinerary activities.
type ResolvedPlace struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
	MapsURL string
}

// PlaceResolver looks up a named place near a destination. Service implements
// it when a maps key is configured; callers treat it as an optional upgrade of
// Geocoder.
type PlaceResolver interface {
	FindPlace(ctx context.Context, destination, name string) (*ResolvedPlace, error)
}

// FindPlace text-searches for name near destination and returns the top
// result. Results are cached like geocodes; the same landmarks recur across
// itineraries for a destination.
func (s *Service) FindPlace(ctx context.Context, destination, name string) (*ResolvedPlace, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, fmt.Errorf("empty place name")
	}
	if d := strings.TrimSpace(destination); d != "" {
		query = query + " " + d
	}
	key := "place:" + strings.ToLower(query)

	s.mu.Lock()
	if p, ok := s.placeCache[key]; ok {
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	results, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query, Language: "en"})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}
	if len(results.Results) == 0 {
		return nil, fmt.Errorf("no place result for %q", query)
	}

	r := results.Results[0]
	p := &ResolvedPlace{
		Name:    r.Name,
		Address: r.FormattedAddress,
		Lat:     r.Geometry.Location.Lat,
		Lng:     r.Geometry.Location.Lng,
		MapsURL: "https://www.google.com/maps/place/?q=place_id:" + r.PlaceID,
	}

	s.mu.Lock()
	s.placeCache[key] = p
	s.mu.Unlock()
	return p, nil
}
