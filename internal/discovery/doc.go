// Package discovery finds label stations on the local network and lets a
// station announce itself, using multicast DNS (mDNS).
//
// A station registers the "_labelgen._tcp" service with TXT records
// carrying its version and whether it serves TLS:
//
//	adv, err := discovery.Advertise("counter-1", 8780, map[string]string{
//		"version": version.Version,
//		"tls":     "false",
//	})
//	defer adv.Shutdown()
//
// Clients browse for that service type:
//
//	stations, err := discovery.Scan(ctx, 5*time.Second)
//	for _, st := range stations {
//		fmt.Println(st.Instance, st.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Stations must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
