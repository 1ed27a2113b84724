// Package session implements the per-connection Tuya LAN state machine:
// connect, the 3.4+/3.5 session-key negotiation, serialized
// request/response, error recovery, and close, per the protocol's
// socket lifecycle.
//
// One Engine owns exactly one TCP socket at a time and enforces
// at-most-one-operation-in-flight with an internal mutex, matching the
// concurrency model of the device this package talks to: the device
// itself only ever answers one outstanding request.
package session
