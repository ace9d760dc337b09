package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type label stations advertise.
	ServiceType = "_labelgen._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for station discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the station port assumed when an entry carries none
	DefaultPort = 8780
)

// Scanner handles mDNS station discovery
type Scanner struct {
	// Timeout is the maximum time to wait for station discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all label stations on the local network until the timeout
// or ctx ends. Stations are returned sorted by instance name.
func (s *Scanner) Scan(ctx context.Context) ([]*Station, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu       sync.Mutex
		stations = make(map[string]*Station)
	)
	go func() {
		for entry := range entries {
			st := parseServiceEntry(entry)
			if st == nil {
				continue
			}
			mu.Lock()
			stations[st.Instance] = st
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	out := make([]*Station, 0, len(stations))
	for _, st := range stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out, nil
}

// Find waits for the station with the given instance name.
func (s *Scanner) Find(ctx context.Context, instance string) (*Station, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Station, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			st := parseServiceEntry(entry)
			if st != nil && strings.EqualFold(st.Instance, instance) {
				select {
				case found <- st:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case st := <-found:
		return st, nil
	case <-ctx.Done():
		select {
		case st := <-found:
			return st, nil
		default:
		}
		return nil, fmt.Errorf("station %q not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Station.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Station {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := ParseTXT(entry.Text)

	return &Station{
		Instance:     entry.Instance,
		Host:         strings.TrimSuffix(entry.HostName, "."),
		IP:           ip,
		Port:         port,
		Version:      metadata["version"],
		TLS:          metadata["tls"] == "true" || metadata["tls"] == "1",
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ParseTXT splits "key=value" TXT records. Keys without a value map to "".
func ParseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces a label station on the local network until Shutdown.
func Advertise(instance string, port int, txt map[string]string) (*Advertisement, error) {
	records := make([]string, 0, len(txt))
	for k, v := range txt {
		records = append(records, k+"="+v)
	}
	sort.Strings(records)

	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, records, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: srv}, nil
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a != nil && a.server != nil {
		a.server.Shutdown()
	}
}

// Scan is a convenience function to scan for stations with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Station, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
