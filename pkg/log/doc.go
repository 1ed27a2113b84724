// Package log provides structured protocol logging for a Tuya LAN
// session.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, service). It
// is separate from operational logging (slog) - protocol capture provides
// a complete machine-readable event trace for debugging a device
// interaction after the fact.
//
// # Basic Usage
//
// A Device is configured with a Logger; the default is NoopLogger:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	fileLog, _ := log.NewFileLogger("/var/log/tuya/bulb.tlog")
//	cfg.Logger = fileLog
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLog,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw socket bytes (FrameEvent)
//   - Wire: decoded 55AA/6699 frames (FrameParseEvent)
//   - Service: socket/session state transitions (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding. Reader replays them with optional
// filtering by connection, layer, category, or time range.
package log
