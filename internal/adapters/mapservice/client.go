package mapservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/ports"
)

const (
	DefaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	DefaultOSRMURL      = "https://router.project-osrm.org"
	DefaultMapillaryURL = "https://graph.mapillary.com"
)

// Options configures the upstream providers.
type Options struct {
	OverpassURLs   []string
	OSRMURL        string
	MapillaryURL   string
	MapillaryToken string
	GeoIPPath      string
	Timeout        time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	UserAgent      string
	HTTPClient     *http.Client
}

// Client implements ports.MapService on top of public OpenStreetMap services:
// Overpass for search, OSRM for routing, Mapillary for street-level imagery
// and a MaxMind database for user location.
type Client struct {
	opts  Options
	http  *http.Client
	geoip *geoip2.Reader
}

var (
	_ ports.MapService   = (*Client)(nil)
	_ ports.ClientBinder = (*Client)(nil)
)

// New creates a Client. The GeoIP database is opened eagerly when configured.
func New(opts Options) (*Client, error) {
	if len(opts.OverpassURLs) == 0 {
		opts.OverpassURLs = []string{DefaultOverpassURL}
	}
	if opts.OSRMURL == "" {
		opts.OSRMURL = DefaultOSRMURL
	}
	if opts.MapillaryURL == "" {
		opts.MapillaryURL = DefaultMapillaryURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "swingsandsand/1.0"
	}

	c := &Client{opts: opts, http: opts.HTTPClient}
	if c.http == nil {
		c.http = &http.Client{Timeout: opts.Timeout}
	}

	if opts.GeoIPPath != "" {
		reader, err := geoip2.Open(opts.GeoIPPath)
		if err != nil {
			return nil, fmt.Errorf("open geoip database: %w", err)
		}
		c.geoip = reader
	}
	return c, nil
}

// Close releases the GeoIP database.
func (c *Client) Close() error {
	if c.geoip != nil {
		return c.geoip.Close()
	}
	return nil
}

// CurrentUserLocation is unavailable until the client is bound to a user
// with ForClient.
func (c *Client) CurrentUserLocation(ctx context.Context) (*domain.Coordinate, error) {
	return nil, domain.ErrLocationUnavailable
}

// ForClient returns a MapService whose CurrentUserLocation geolocates clientIP.
func (c *Client) ForClient(clientIP string) ports.MapService {
	return &boundClient{Client: c, clientIP: clientIP}
}

type boundClient struct {
	*Client
	clientIP string
}

func (b *boundClient) CurrentUserLocation(ctx context.Context) (*domain.Coordinate, error) {
	return b.locate(b.clientIP)
}
