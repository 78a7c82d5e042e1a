// README: Destination geocoding via Google Maps (country code + coordinates).
package geo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"googlemaps.github.io/maps"
)

// Point is a geocoded destination.
type Point struct {
	Name        string
	CountryCode string // ISO 3166-1 alpha-2, upper case
	Lat         float64
	Lng         float64
}

// Geocoder resolves free-form destinations. Implemented by Service; the
// context providers accept the interface so tests can stub it.
type Geocoder interface {
	Geocode(ctx context.Context, destination string) (*Point, error)
}

// Service handles interactions with the Google Geocoding API. Results are
// cached for the process lifetime: destinations repeat heavily and normals
// never change.
type Service struct {
	client *maps.Client

	mu         sync.Mutex
	cache      map[string]*Point
	placeCache map[string]*ResolvedPlace
}

// NewService creates a Service with the given API key.
func NewService(apiKey string) (*Service, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Service{
		client:     client,
		cache:      make(map[string]*Point),
		placeCache: make(map[string]*ResolvedPlace),
	}, nil
}

func (s *Service) Geocode(ctx context.Context, destination string) (*Point, error) {
	key := strings.ToLower(strings.TrimSpace(destination))

	s.mu.Lock()
	if p, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: destination, Language: "en"})
	if err != nil {
		return nil, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no geocoding result for %q", destination)
	}

	r := results[0]
	p := &Point{
		Name: destination,
		Lat:  r.Geometry.Location.Lat,
		Lng:  r.Geometry.Location.Lng,
	}
	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			if t == "country" {
				p.CountryCode = strings.ToUpper(comp.ShortName)
			}
		}
	}

	s.mu.Lock()
	s.cache[key] = p
	s.mu.Unlock()
	return p, nil
}
