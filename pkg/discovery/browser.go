package discovery

import (
	"context"
	"time"
)

// Browser finds reset-line hosts on the local network.
type Browser interface {
	// BrowseHosts searches for announced hosts. Discovered services
	// are delivered on the returned channel, which is closed when the
	// context is cancelled.
	BrowseHosts(ctx context.Context) (<-chan *HostService, error)

	// FindHost searches for the host with the given host ID. Returns
	// when found or when the context is cancelled.
	FindHost(ctx context.Context, hostID string) (*HostService, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for browse operations.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// ServiceEntry is a library-independent view of one raw mDNS entry.
// Browser implementations convert their library's entries through it.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToHostService converts a ServiceEntry to a HostService.
func (e *ServiceEntry) ToHostService() (*HostService, error) {
	txt := StringsToTXTRecords(e.Text)
	info, err := DecodeHostTXT(txt)
	if err != nil {
		return nil, err
	}

	return &HostService{
		InstanceName: e.Instance,
		Host:         e.Host,
		Port:         e.Port,
		Addresses:    e.Addrs,
		Version:      info.Version,
		HostID:       info.HostID,
		Board:        info.Board,
		Controllers:  info.Controllers,
	}, nil
}
