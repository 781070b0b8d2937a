// Package delivery turns the many ways a customer can point at their house
// (shared location, raw coordinates, Google Maps links) into a priced
// delivery quote.
package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sanmarzano/orderbot/internal/geo"
	"github.com/sanmarzano/orderbot/internal/models"
)

var (
	coordsRe   = regexp.MustCompile(`(-?\d+\.\d+)\s*,\s*(-?\d+\.\d+)`)
	urlRe      = regexp.MustCompile(`https?://\S+`)
	mapsPathRe = regexp.MustCompile(`!3d(-?\d+\.\d+)!4d(-?\d+\.\d+)`)
	mapsAtRe   = regexp.MustCompile(`@(-?\d+\.\d+),(-?\d+\.\d+)`)
	mapsQRe    = regexp.MustCompile(`[?&]q=(-?\d+\.\d+),(-?\d+\.\d+)`)
)

// ParseCoords extracts a "lat,lng" decimal pair from free text.
func ParseCoords(text string) *models.Location {
	m := coordsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil
	}
	return &models.Location{Lat: lat, Lng: lng}
}

// FirstURL returns the first http(s) URL in the text, trailing punctuation
// trimmed.
func FirstURL(text string) string {
	u := urlRe.FindString(text)
	return strings.TrimRight(u, ".,;)")
}

// IsMapsURL reports whether the URL belongs to a Google Maps host,
// shortened forms included.
func IsMapsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.Contains(host, "maps.") || host == "goo.gl" || strings.HasSuffix(host, ".goo.gl")
}

// Resolver expands shortened map links by following redirects manually, so
// the hop count stays bounded even for adversarial links.
type Resolver struct {
	Client       *http.Client
	MaxRedirects int
}

func NewResolver() *Resolver {
	return &Resolver{
		Client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		MaxRedirects: 5,
	}
}

// ResolveFinalURL follows redirects from rawURL and returns the final
// destination.
func (r *Resolver) ResolveFinalURL(ctx context.Context, rawURL string) (string, error) {
	maxHops := r.MaxRedirects
	if maxHops <= 0 {
		maxHops = 5
	}

	current := rawURL
	for hop := 0; hop <= maxHops; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return "", fmt.Errorf("building request for %s: %w", current, err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; SanMarzanoBot/1.0)")

		resp, err := r.Client.Do(req)
		if err != nil {
			return "", fmt.Errorf("fetching %s: %w", current, err)
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()

		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			return current, nil
		}
		loc := resp.Header.Get("Location")
		if loc == "" {
			return current, nil
		}
		base, err := url.Parse(current)
		if err != nil {
			return "", err
		}
		next, err := base.Parse(loc)
		if err != nil {
			return "", fmt.Errorf("resolving redirect %q: %w", loc, err)
		}
		current = next.String()
	}
	// Hop limit reached. The last URL seen is still worth pattern-matching
	// for coordinates, so hand it back instead of failing the whole lookup.
	return current, nil
}

// CoordsFromMapsURL resolves a Google Maps URL (shortened or full) to the
// coordinates it pins. Pin-precise patterns are preferred over the viewport
// center.
func (r *Resolver) CoordsFromMapsURL(ctx context.Context, rawURL string) (*models.Location, error) {
	final, err := r.ResolveFinalURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	decoded, err := url.QueryUnescape(final)
	if err != nil {
		decoded = final
	}

	for _, re := range []*regexp.Regexp{mapsPathRe, mapsAtRe, mapsQRe} {
		if m := re.FindStringSubmatch(decoded); m != nil {
			lat, err1 := strconv.ParseFloat(m[1], 64)
			lng, err2 := strconv.ParseFloat(m[2], 64)
			if err1 == nil && err2 == nil {
				return &models.Location{Lat: lat, Lng: lng}, nil
			}
		}
	}
	return nil, nil
}

// Quote prices a delivery from the restaurant to the given coordinates.
func Quote(origin, dest models.Location, ratePerKm, minimumFee float64) models.DeliveryQuote {
	distance := geo.DistanceKm(origin, dest)
	return models.DeliveryQuote{
		Location:   dest,
		DistanceKm: distance,
		Cost:       geo.DeliveryCost(distance, ratePerKm, minimumFee),
	}
}
