// Package discovery implements mDNS/DNS-SD discovery for reset-line
// hosts.
//
// A host announces one service of type _resetline._tcp on the local
// domain. The instance name is "<board>-<hostid-prefix>" so several
// hosts of the same board stay distinct. TXT records carry pv
// (protocol version), id (host ID), board (board name), and
// optionally nc (registered controller count).
//
// Control tools browse the same service type to find hosts without
// configuration, or resolve one specific host by its ID.
package discovery
