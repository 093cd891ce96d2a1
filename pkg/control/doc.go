// Package control implements the wire protocol for driving reset
// controllers remotely: length-prefixed CBOR frames over TCP, a
// version handshake with optional pre-shared-key authentication, and
// request/response dispatch into a hosting subsystem.
//
// A Server owns the listening socket and serves every registered
// controller of its subsystem; Client is the matching dialer used by
// control tools. Operation results travel as the same signed codes the
// subsystem produces, so a remote caller sees exactly what a local
// caller would.
package control
