package tuya

import (
	"log/slog"
	"time"

	"github.com/tuya-lan/tuya-go/pkg/log"
	"github.com/tuya-lan/tuya-go/pkg/session"
	"github.com/tuya-lan/tuya-go/pkg/tuyacipher"
	"github.com/tuya-lan/tuya-go/pkg/tuyaerr"
)

var supportedVersions = map[string]bool{
	"3.1": true,
	"3.3": true,
	"3.4": true,
	"3.5": true,
}

var supportedDeviceProfiles = map[string]bool{
	"":         true,
	"device22": true,
	"zigbee":   true,
}

const (
	defaultPort           = 6668
	defaultConnectTimeout = 5 * time.Second
	defaultRetryLimit     = 3
	defaultRetryDelay     = 500 * time.Millisecond
)

// Config configures one Device. Fields left at their zero value are
// filled in with defaults by New.
type Config struct {
	// DeviceID is the device's gwId/devId, sent in every request.
	DeviceID string
	// Address is the device's LAN IP or hostname.
	Address string
	// Port defaults to 6668 when zero.
	Port int
	// LocalKey is the 16-byte pre-shared secret. Longer keys are
	// rejected; shorter keys are zero-padded on protocol 3.1 and
	// rejected on every other version.
	LocalKey []byte
	// Version selects the protocol generation: "3.1", "3.3", "3.4", or
	// "3.5".
	Version string
	// DeviceProfile selects a command-catalog overlay: "" (none),
	// "device22", or "zigbee".
	DeviceProfile string

	// ConnectTimeout bounds each dial and each read. Defaults to 5s.
	ConnectTimeout time.Duration
	// RetryLimit bounds connect attempts per Open. Defaults to 3.
	RetryLimit int
	// RetryDelay seeds the exponential backoff between attempts.
	// Defaults to 500ms.
	RetryDelay time.Duration
	// TCPNoDelay disables Nagle's algorithm on the socket.
	TCPNoDelay bool
	// Persistent keeps the socket open across operations instead of
	// closing it after every request/response.
	Persistent bool

	// Logger receives a structured protocol-event trace: every frame
	// sent and received, every state transition, every error. Wrap a
	// *slog.Logger with log.NewSlogAdapter for human-readable output,
	// or use log.NewFileLogger for a replayable binary trace. Nil
	// disables protocol logging.
	Logger log.Logger
	// OpLogger receives short operational messages (connect attempts,
	// retries, negotiation outcomes) independent of Logger's structured
	// protocol trace. Nil disables it.
	OpLogger *slog.Logger
}

// Validate reports a Configuration error for any field New cannot work
// with. It does not mutate cfg.
func (c Config) Validate() error {
	if c.DeviceID == "" {
		return tuyaerr.New(tuyaerr.Configuration, "config.validate", "DeviceID is required")
	}
	if c.Address == "" {
		return tuyaerr.New(tuyaerr.Configuration, "config.validate", "Address is required")
	}
	if len(c.LocalKey) == 0 {
		return tuyaerr.New(tuyaerr.Configuration, "config.validate", "LocalKey is required")
	}
	if len(c.LocalKey) > tuyacipher.KeySize {
		return tuyaerr.New(tuyaerr.Configuration, "config.validate", "LocalKey must be at most 16 bytes")
	}
	if c.Version != "3.1" && len(c.LocalKey) < tuyacipher.KeySize {
		return tuyaerr.New(tuyaerr.Configuration, "config.validate", "LocalKey must be 16 bytes for protocol 3.3 and newer")
	}
	if !supportedVersions[c.Version] {
		return tuyaerr.New(tuyaerr.Configuration, "config.validate", "unsupported protocol version "+c.Version)
	}
	if !supportedDeviceProfiles[c.DeviceProfile] {
		return tuyaerr.New(tuyaerr.Configuration, "config.validate", "unknown device profile "+c.DeviceProfile)
	}
	return nil
}

// normalize returns a copy of cfg with defaults filled in and the local
// key zero-padded to 16 bytes.
func (c Config) normalize() Config {
	out := c
	if out.Port == 0 {
		out.Port = defaultPort
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = defaultConnectTimeout
	}
	if out.RetryLimit == 0 {
		out.RetryLimit = defaultRetryLimit
	}
	if out.RetryDelay == 0 {
		out.RetryDelay = defaultRetryDelay
	}
	out.LocalKey = tuyacipher.PrepareKey(c.LocalKey)
	return out
}

// toSessionConfig builds the pkg/session Config the Device's Engine runs
// against. cfg is assumed already validated and normalized.
func (c Config) toSessionConfig() session.Config {
	return session.Config{
		DeviceID:       c.DeviceID,
		Address:        c.Address,
		Port:           c.Port,
		LocalKey:       c.LocalKey,
		Version:        c.Version,
		DeviceProfile:  c.DeviceProfile,
		ConnectTimeout: c.ConnectTimeout,
		RetryLimit:     c.RetryLimit,
		RetryDelay:     c.RetryDelay,
		TCPNoDelay:     c.TCPNoDelay,
		Persistent:     c.Persistent,
		Logger:         c.Logger,
		OpLogger:       c.OpLogger,
	}
}
