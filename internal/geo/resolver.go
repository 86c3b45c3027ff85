// Package geo resolves the user's current position to a display
// address. Position access is consent-gated; declining consent is a
// normal outcome, not a fault.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/quickwish/quickwish/internal/appstate"
	"github.com/quickwish/quickwish/internal/wish"
)

// ErrPermissionDenied means location consent was not granted. Callers
// surface it and never retry automatically.
var ErrPermissionDenied = errors.New("location permission not granted")

// FallbackAddress is used when reverse geocoding yields no usable
// address components.
const FallbackAddress = "Current Location"

// Position is a raw coordinate pair.
type Position struct {
	Lat float64
	Lng float64
}

// PositionSource provides the current position.
type PositionSource interface {
	Current(ctx context.Context) (Position, error)
}

// ReverseGeocoder turns a position into a display address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, pos Position) (string, error)
}

// Resolver combines consent, a position source, and a geocoder, and
// publishes successful resolutions to the shared app state so sibling
// screens see the same value.
type Resolver struct {
	consent  bool
	source   PositionSource
	geocoder ReverseGeocoder
	store    *appstate.Store
}

// NewResolver creates a resolver. store may be nil, in which case
// resolutions are not published anywhere.
func NewResolver(consent bool, source PositionSource, geocoder ReverseGeocoder, store *appstate.Store) *Resolver {
	return &Resolver{
		consent:  consent,
		source:   source,
		geocoder: geocoder,
		store:    store,
	}
}

// ResolveCurrent fetches the current position and reverse-geocodes it.
// Without consent it fails fast with ErrPermissionDenied and never
// prompts on its own.
func (r *Resolver) ResolveCurrent(ctx context.Context) (wish.Location, error) {
	if !r.consent {
		return wish.Location{}, ErrPermissionDenied
	}

	pos, err := r.source.Current(ctx)
	if err != nil {
		return wish.Location{}, fmt.Errorf("failed to fetch position: %w", err)
	}

	address, err := r.geocoder.Reverse(ctx, pos)
	if err != nil {
		return wish.Location{}, fmt.Errorf("failed to reverse geocode: %w", err)
	}

	if address == "" {
		address = FallbackAddress
	}

	loc := wish.Location{Lat: pos.Lat, Lng: pos.Lng, Address: address}

	if r.store != nil {
		r.store.SetUserLocation(loc)
	}

	return loc, nil
}

// StaticSource reports a fixed position from configuration. The zero
// value means no position has been configured.
type StaticSource struct {
	Lat float64
	Lng float64
}

// Current returns the configured position, or an error when none has
// been set.
func (s StaticSource) Current(_ context.Context) (Position, error) {
	if s.Lat == 0 && s.Lng == 0 {
		return Position{}, errors.New("no position configured: set QUICKWISH_LAT and QUICKWISH_LNG")
	}

	return Position{Lat: s.Lat, Lng: s.Lng}, nil
}

// HTTPGeocoder reverse-geocodes against a Nominatim-shaped endpoint.
type HTTPGeocoder struct {
	baseURL string
	httpc   *http.Client
}

// NewHTTPGeocoder creates a geocoder for the given endpoint.
func NewHTTPGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		httpc:   http.DefaultClient,
	}
}

// nominatimResponse is the subset of the reverse-geocode response we
// read. Component granularity varies by region, so every field is
// optional.
type nominatimResponse struct {
	Address struct {
		Road     string `json:"road"`
		Suburb   string `json:"suburb"`
		City     string `json:"city"`
		Town     string `json:"town"`
		State    string `json:"state"`
		Country  string `json:"country"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// Reverse fetches and joins the address components for a position.
// Empty components are skipped; a fully empty address returns "".
func (g *HTTPGeocoder) Reverse(ctx context.Context, pos Position) (string, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(pos.Lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode request returned %s", resp.Status)
	}

	var decoded nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode geocode response: %w", err)
	}

	city := decoded.Address.City
	if city == "" {
		city = decoded.Address.Town
	}

	return JoinAddress(decoded.Address.Road, decoded.Address.Suburb, city, decoded.Address.State), nil
}

// JoinAddress joins non-empty address components with ", ".
func JoinAddress(components ...string) string {
	parts := make([]string, 0, len(components))

	for _, c := range components {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, strings.TrimSpace(c))
		}
	}

	return strings.Join(parts, ", ")
}
