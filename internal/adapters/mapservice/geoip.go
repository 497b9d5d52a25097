package mapservice

import (
	"fmt"
	"net"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
)

// locate resolves an IP address to the city-level coordinate stored in the
// GeoIP database. Private and loopback addresses never resolve.
func (c *Client) locate(clientIP string) (*domain.Coordinate, error) {
	if c.geoip == nil {
		return nil, fmt.Errorf("%w: no geoip database", domain.ErrLocationUnavailable)
	}
	ip := net.ParseIP(clientIP)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return nil, fmt.Errorf("%w: %q is not a public address", domain.ErrLocationUnavailable, clientIP)
	}

	record, err := c.geoip.City(ip)
	if err != nil {
		return nil, fmt.Errorf("geoip lookup: %w", err)
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return nil, fmt.Errorf("%w: no location for %s", domain.ErrLocationUnavailable, clientIP)
	}
	return &domain.Coordinate{Lat: record.Location.Latitude, Lon: record.Location.Longitude}, nil
}
