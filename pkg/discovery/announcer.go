package discovery

import (
	"context"
	"sync"
)

// Announcer keeps a host's mDNS announcement in sync with its
// registration state. It owns the advertiser and re-announces when the
// controller count changes, so browsers always see current TXT
// records.
type Announcer struct {
	mu sync.Mutex

	advertiser Advertiser
	info       HostInfo
	announced  bool
}

// NewAnnouncer creates an announcer for the given host identity.
func NewAnnouncer(advertiser Advertiser, info HostInfo) *Announcer {
	return &Announcer{
		advertiser: advertiser,
		info:       info,
	}
}

// Start begins announcing the host.
func (a *Announcer) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.advertiser.Advertise(ctx, &a.info); err != nil {
		return err
	}
	a.announced = true
	return nil
}

// SetControllers updates the announced controller count. A live
// announcement is refreshed; before Start the new count is only
// recorded.
func (a *Announcer) SetControllers(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.info.Controllers == n {
		return nil
	}
	a.info.Controllers = n

	if !a.announced {
		return nil
	}
	return a.advertiser.Update(&a.info)
}

// Info returns the currently announced host identity.
func (a *Announcer) Info() HostInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.info
}

// Stop withdraws the announcement.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.announced {
		return
	}
	a.advertiser.Stop()
	a.announced = false
}
