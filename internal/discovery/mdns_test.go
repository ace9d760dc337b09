package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name        string
		entry       *zeroconf.ServiceEntry
		wantNil     bool
		wantIP      string
		wantPort    int
		wantVersion string
		wantTLS     bool
	}{
		{
			name: "station with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "counter-1"},
				HostName:      "shop-pc.local.",
				Port:          8780,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"version=1.2.0", "tls=false"},
			},
			wantIP:      "192.168.4.16",
			wantPort:    8780,
			wantVersion: "1.2.0",
		},
		{
			name: "TLS station",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "secure"},
				HostName:      "shop-pc.local.",
				Port:          8443,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				Text:          []string{"version=1.0.0", "tls=true"},
			},
			wantIP:      "10.0.0.5",
			wantPort:    8443,
			wantVersion: "1.0.0",
			wantTLS:     true,
		},
		{
			name: "no port defaults",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "noport"},
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6"},
				Port:          8780,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 8780,
		},
		{
			name: "prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "both"},
				Port:          8780,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "192.168.1.50",
			wantPort: 8780,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				Port:          8780,
			},
			wantNil: true,
		},
		{
			name: "no instance",
			entry: &zeroconf.ServiceEntry{
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if st != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", st)
				}
				return
			}
			if st == nil {
				t.Fatal("parseServiceEntry() = nil, want station")
			}
			if st.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", st.IP, tt.wantIP)
			}
			if st.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", st.Port, tt.wantPort)
			}
			if st.Version != tt.wantVersion {
				t.Errorf("Version = %v, want %v", st.Version, tt.wantVersion)
			}
			if st.TLS != tt.wantTLS {
				t.Errorf("TLS = %v, want %v", st.TLS, tt.wantTLS)
			}
			if st.Instance != tt.entry.Instance {
				t.Errorf("Instance = %v, want %v", st.Instance, tt.entry.Instance)
			}
			if st.DiscoveredAt.IsZero() || time.Since(st.DiscoveredAt) > time.Minute {
				t.Errorf("DiscoveredAt not set sensibly: %v", st.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntryHost(t *testing.T) {
	st := parseServiceEntry(&zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "a"},
		HostName:      "shop-pc.local.",
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.2")},
	})
	if st.Host != "shop-pc.local" {
		t.Errorf("Host = %q, want trailing dot removed", st.Host)
	}
}

func TestParseTXT(t *testing.T) {
	got := ParseTXT([]string{"version=1.0", "tls=true", "flag", "path=/a=b"})
	want := map[string]string{"version": "1.0", "tls": "true", "flag": "", "path": "/a=b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseTXT() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewScanner(t *testing.T) {
	s := NewScanner()
	if s.Timeout != DefaultScanTimeout {
		t.Errorf("NewScanner().Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}
}

func TestShutdownNilAdvertisement(t *testing.T) {
	var a *Advertisement
	a.Shutdown()
}
