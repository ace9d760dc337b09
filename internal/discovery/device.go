package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Station represents a label station found on the network
type Station struct {
	// Instance is the advertised service instance name (e.g., "counter-1")
	Instance string

	// Host is the mDNS hostname without the trailing dot
	Host string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the HTTP(S) port of the station API
	Port int

	// Version is the labelgen version from the TXT record
	Version string

	// TLS reports whether the station serves HTTPS
	TLS bool

	// Metadata contains all mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the station was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the station
func (s *Station) String() string {
	return fmt.Sprintf("Label station %s (v%s) at %s", s.Instance, s.Version, s.BaseURL())
}

// BaseURL returns the API base URL for the station
func (s *Station) BaseURL() string {
	scheme := "http"
	if s.TLS {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Station) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
