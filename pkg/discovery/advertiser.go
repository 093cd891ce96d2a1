package discovery

import (
	"context"
	"time"
)

// Advertiser announces a reset-line host on the local network.
type Advertiser interface {
	// Advertise starts announcing the host service. A second call
	// replaces the previous announcement.
	Advertise(ctx context.Context, info *HostInfo) error

	// Update re-announces the service with fresh TXT records, e.g.
	// after the controller count changed.
	Update(info *HostInfo) error

	// Stop withdraws the announcement. Stop on a stopped advertiser
	// is a no-op.
	Stop()
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       120 * time.Second,
	}
}
