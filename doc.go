// Package tuya is a client for the Tuya LAN protocol, speaking directly
// to a device on the local network without going through Tuya's cloud.
// It supports protocol generations 3.1, 3.3, 3.4, and 3.5, covering
// framing, encryption, session-key negotiation, and the small command
// set devices answer: status queries, data-point control, heartbeats,
// and UDP discovery.
//
// A Device owns one *session.Engine, which owns at most one TCP socket
// at a time. Callers do not see the socket lifecycle directly; New
// validates configuration but does not connect, and the first
// operation on a Device opens the connection (and, for 3.4/3.5,
// negotiates a session key) on demand.
package tuya
