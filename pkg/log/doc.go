// Package log provides structured event logging for resetline.
//
// This package defines the Logger interface and Event types for
// capturing controller lifecycle and dispatch events: registrations,
// per-line operations, control-connection activity, and errors. It is
// separate from operational logging (slog) - event capture provides a
// complete machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
// Components accept a Logger implementation:
//
//	// For development: log to console via slog
//	sub.SetLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/resetline/host.rlog")
//	sub.SetLogger(fl)
//
//	// Both: use MultiLogger
//	sub.SetLogger(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// # Event Types
//
// Events carry one type-specific payload:
//   - Registration: controller registered/unregistered (RegistrationEvent)
//   - Dispatch: one per-line operation (DispatchEvent)
//   - Frame: raw control-protocol frames (FrameEvent)
//   - State: lifecycle state changes (StateChangeEvent)
//   - Error: failures at any layer (ErrorEventData)
//
// # File Format
//
// Log files use CBOR encoding with .rlog extension. The resetline-log
// CLI tool provides viewing, filtering, and export capabilities.
package log
