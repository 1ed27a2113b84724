// Package connection provides the exponential-backoff delay calculator
// used by the session engine's connect retry loop.
//
// The Tuya LAN protocol has no reconnection strategy of its own: a device
// handle retries a failed TCP connect up to a configured limit, waiting
// between attempts, and gives up rather than retrying forever. Backoff
// implements the wait calculation (exponential growth with jitter,
// capped at a maximum) so that a handle configured with a short base
// retry delay does not hammer a slow-to-boot device.
//
// Backoff is deliberately not a connection supervisor: it holds no
// socket, starts no goroutines, and knows nothing about TCP. The session
// engine owns the retry loop; Backoff only answers "how long to wait
// before the next attempt".
package connection
