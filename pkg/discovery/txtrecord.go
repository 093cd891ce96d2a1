package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/resetline-protocol/resetline-go/pkg/version"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeHostTXT creates TXT records for host discovery.
func EncodeHostTXT(info *HostInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	v := info.Version
	if v == "" {
		v = version.Current
	}
	txt[TXTKeyVersion] = v
	txt[TXTKeyHostID] = info.HostID
	txt[TXTKeyBoard] = info.Board

	// Optional fields
	if info.Controllers > 0 {
		txt[TXTKeyControllers] = strconv.Itoa(info.Controllers)
	}

	return txt
}

// DecodeHostTXT parses TXT records from host discovery.
func DecodeHostTXT(txt TXTRecordMap) (*HostInfo, error) {
	info := &HostInfo{}

	// Parse version (required)
	v, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	if _, err := version.Parse(v); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTXTRecord, TXTKeyVersion)
	}
	info.Version = v

	// Parse host ID (required)
	info.HostID, ok = txt[TXTKeyHostID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyHostID)
	}

	// Parse board (required)
	info.Board, ok = txt[TXTKeyBoard]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyBoard)
	}

	// Optional fields
	if nc, ok := txt[TXTKeyControllers]; ok {
		n, err := strconv.Atoi(nc)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTXTRecord, TXTKeyControllers)
		}
		info.Controllers = n
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// InstanceName builds the mDNS instance name for a host: the board
// name plus a host-ID suffix to keep instances distinct on networks
// with several hosts of the same board.
func InstanceName(info *HostInfo) string {
	suffix := info.HostID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	name := fmt.Sprintf("%s-%s", info.Board, suffix)
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTXTRecord)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// joinHostPort formats host:port, bracketing IPv6 literals.
func joinHostPort(host string, port uint16) string {
	return net.JoinHostPort(strings.TrimSuffix(host, "."), strconv.Itoa(int(port)))
}
