package session

import (
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/tuya-lan/tuya-go/pkg/log"
)

// Dialer opens the underlying connection. Tests substitute a fake
// implementation backed by net.Pipe; production code leaves this nil
// and Engine falls back to net.DialTimeout.
type Dialer func(network, address string, timeout time.Duration) (net.Conn, error)

// Config configures one Engine. It is copied into the engine at
// construction and is not mutated afterward.
type Config struct {
	DeviceID      string
	Address       string
	Port          int
	LocalKey      []byte // exactly 16 bytes, prepared by the caller
	Version       string // "3.1", "3.3", "3.4", or "3.5"
	DeviceProfile string // "", "device22", "zigbee"

	ConnectTimeout time.Duration
	RetryLimit     int
	RetryDelay     time.Duration
	TCPNoDelay     bool
	Persistent     bool

	// Logger receives the structured, replayable protocol-event trace
	// (every frame, every state transition). Nil disables it.
	Logger log.Logger
	// OpLogger receives human-readable operational messages (connect
	// attempts, retries, negotiation outcomes) at a level a human would
	// tail in production, independent of the protocol trace above. Nil
	// disables it.
	OpLogger *slog.Logger
	Dial     Dialer
}

// versionProfile returns the catalog version-profile key for cfg's
// protocol version: "" for 3.1/3.3, "v3.4", or "v3.5".
func (c Config) versionProfile() string {
	switch c.Version {
	case "3.4":
		return "v3.4"
	case "3.5":
		return "v3.5"
	default:
		return ""
	}
}

// negotiates reports whether this protocol version runs the 3-step
// session-key handshake before any application frame.
func (c Config) negotiates() bool {
	return c.Version == "3.4" || c.Version == "3.5"
}

// needsVersionHeader reports whether cfg's protocol version prepends a
// version header to (most) payloads. Only 3.1 never does.
func (c Config) needsVersionHeader() bool {
	return c.Version != "3.1"
}

// sealed reports whether cfg's protocol version uses the 6699/GCM frame
// layout rather than 55AA.
func (c Config) sealed() bool {
	return c.Version == "3.5"
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}
