package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeHost is the service type reset-line hosts announce.
	ServiceTypeHost = "_resetline._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// TXT record key constants.
const (
	TXTKeyVersion     = "pv"    // Protocol version ("major.minor")
	TXTKeyHostID      = "id"    // Host instance ID
	TXTKeyBoard       = "board" // Board name
	TXTKeyControllers = "nc"    // Registered controller count (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required field")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
)

// HostInfo is the identity a reset-line host announces.
type HostInfo struct {
	// HostID uniquely identifies the host instance, typically a UUID
	// drawn at startup.
	HostID string

	// Board is the name of the board the host brought up.
	Board string

	// Controllers is the number of registered controllers. Zero is
	// omitted from TXT records.
	Controllers int

	// Port is the control server's TCP port.
	Port uint16

	// Version is the announced protocol version. Empty means the
	// library's current version.
	Version string
}

// HostService is a reset-line host found by browsing.
type HostService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	Version     string
	HostID      string
	Board       string
	Controllers int
}

// Addr returns a dialable "address:port" for the service, preferring
// resolved addresses over the hostname.
func (s *HostService) Addr() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return joinHostPort(host, s.Port)
}
