package session

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tuya-lan/tuya-go/pkg/catalog"
	"github.com/tuya-lan/tuya-go/pkg/connection"
	"github.com/tuya-lan/tuya-go/pkg/log"
	"github.com/tuya-lan/tuya-go/pkg/tuyaerr"
	"github.com/tuya-lan/tuya-go/pkg/wire"
)

// State is a socket lifecycle state.
type State int

const (
	StateCold State = iota
	StateConnecting
	StateRaw
	StateReady
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "COLD"
	case StateConnecting:
		return "CONNECTING"
	case StateRaw:
		return "RAW"
	case StateReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Engine owns exactly one socket to one device and runs its
// request/response and negotiation state machine. Its exported methods
// may be called from several goroutines; Do, Open and Close serialize
// against each other via mu, matching the device's own
// one-request-at-a-time behavior.
type Engine struct {
	cfg Config

	mu    sync.Mutex // serializes Do/Open/Close against each other
	state State

	conn                net.Conn
	connID              string
	buf                 []byte
	consecutiveTimeouts int

	seq        uint32
	sessionKey []byte
	negotiated bool

	backoff *connection.Backoff
}

// NewEngine builds an Engine from cfg. cfg.LocalKey is copied so the
// caller's slice can be reused or zeroed afterward.
func NewEngine(cfg Config) *Engine {
	cfg.LocalKey = append([]byte(nil), cfg.LocalKey...)
	key := append([]byte(nil), cfg.LocalKey...)
	return &Engine{
		cfg:        cfg,
		state:      StateCold,
		sessionKey: key,
		seq:        1,
		backoff: connection.NewBackoffWithConfig(connection.BackoffConfig{
			Initial: cfg.RetryDelay,
		}),
	}
}

func (e *Engine) logger() log.Logger {
	if e.cfg.Logger == nil {
		return log.NoopLogger{}
	}
	return e.cfg.Logger
}

// opLog reports a human-readable operational message, independent of
// the structured protocol-event trace logger() feeds. A nil OpLogger
// silently drops the message.
func (e *Engine) opLog(level slog.Level, msg string, args ...any) {
	if e.cfg.OpLogger == nil {
		return
	}
	args = append([]any{"device_id", e.cfg.DeviceID, "addr", e.cfg.addr()}, args...)
	e.cfg.OpLogger.Log(context.Background(), level, msg, args...)
}

func (e *Engine) setState(next State, reason string) {
	old := e.state
	e.state = next
	e.logger().Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: e.connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerService,
		Category:     log.CategoryState,
		RemoteAddr:   e.cfg.addr(),
		DeviceID:     e.cfg.DeviceID,
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Negotiated reports whether the current socket has completed the
// session-key handshake (always false for 3.1/3.3, which don't run one).
func (e *Engine) Negotiated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.negotiated
}

func (e *Engine) logError(op string, err error) {
	e.logger().Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: e.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerService,
		Category:     log.CategoryError,
		RemoteAddr:   e.cfg.addr(),
		DeviceID:     e.cfg.DeviceID,
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Context: op,
		},
	})
}

// Open establishes the socket and, for 3.4/3.5, completes session-key
// negotiation, retrying with backoff up to cfg.RetryLimit times.
// Calling Open when already READY is a no-op.
func (e *Engine) Open(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureOpen(ctx)
}

// Close tears the socket down and resets negotiation state. Safe to
// call when already closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked("explicit close")
}

func (e *Engine) closeLocked(reason string) error {
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	e.buf = nil
	e.consecutiveTimeouts = 0
	e.negotiated = false
	e.sessionKey = append([]byte(nil), e.cfg.LocalKey...)
	e.setState(StateCold, reason)
	return err
}

func (e *Engine) ensureOpen(ctx context.Context) error {
	if e.state == StateReady {
		return nil
	}
	if e.conn != nil {
		// A previous op left the socket in a non-ready state; start
		// clean rather than trying to salvage it.
		_ = e.closeLocked("reopen")
	}

	e.connID = uuid.NewString()
	e.setState(StateConnecting, "open requested")

	var lastErr error
	attempts := e.cfg.RetryLimit
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := e.backoff.Next()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		conn, err := e.dial(ctx)
		if err != nil {
			lastErr = err
			e.logError("connect", err)
			e.opLog(slog.LevelWarn, "connect attempt failed", "attempt", attempt+1, "error", err)
			continue
		}
		e.conn = conn
		e.backoff.Reset()
		e.setState(StateRaw, "socket connected")

		if e.cfg.negotiates() {
			if err := e.negotiate(); err != nil {
				lastErr = err
				e.logError("negotiate", err)
				e.opLog(slog.LevelWarn, "session-key negotiation failed", "attempt", attempt+1, "error", err)
				_ = e.closeLocked("negotiation failed")
				continue
			}
			e.negotiated = true
			e.opLog(slog.LevelInfo, "session-key negotiation succeeded")
		}
		e.setState(StateReady, "handshake complete")
		return nil
	}
	e.setState(StateCold, "connect failed")
	e.opLog(slog.LevelError, "giving up connecting", "attempts", attempts, "error", lastErr)
	return tuyaerr.Wrap(tuyaerr.Connect, "session.open", "unable to connect", lastErr)
}

func (e *Engine) dial(ctx context.Context) (net.Conn, error) {
	dial := e.cfg.Dial
	if dial == nil {
		dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, network, address)
		}
	}
	conn, err := dial("tcp", e.cfg.addr(), e.cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(e.cfg.TCPNoDelay)
	}
	return conn, nil
}

func (e *Engine) nextSeq() uint32 {
	return atomic.AddUint32(&e.seq, 1) - 1
}

// Do sends one command and waits for its response, opening the socket
// (and negotiating, if required) first when necessary. When nowait is
// true, the request is sent and a synthetic success Response is
// returned without waiting for a reply.
func (e *Engine) Do(ctx context.Context, cmd catalog.Command, params catalog.BuildParams, nowait bool) (Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureOpen(ctx); err != nil {
		return Response{}, err
	}

	wireCmd, payload, err := catalog.Build(cmd, e.cfg.versionProfile(), e.cfg.DeviceProfile, params)
	if err != nil {
		return Response{}, tuyaerr.Wrap(tuyaerr.Decode, "session.do", "failed to build command payload", err)
	}

	seq := e.nextSeq()
	includeHeader := e.cfg.needsVersionHeader() && !catalog.IsHeaderExempt(cmd)

	if err := e.sendApp(seq, wireCmd, payload, includeHeader); err != nil {
		_ = e.closeLocked("write failed")
		return Response{}, err
	}

	if !e.cfg.Persistent {
		defer e.closeLocked("non-persistent connection")
	}

	if nowait {
		return Response{Success: true}, nil
	}

	body, invalid, retCode, err := e.recvApp(includeHeader)
	if err != nil {
		_ = e.closeLocked("read failed")
		return Response{}, err
	}

	resp, err := normalize(body, invalid, retCode)
	if err != nil {
		return Response{}, tuyaerr.Wrap(tuyaerr.Decode, "session.do", "failed to decode response JSON", err)
	}
	return resp, nil
}

func (e *Engine) sendApp(seq, cmd uint32, jsonPayload []byte, includeHeader bool) error {
	body, nonce, err := e.encodePayload(seq, cmd, jsonPayload, includeHeader)
	if err != nil {
		return tuyaerr.Wrap(tuyaerr.Crypto, "session.send", "failed to encrypt payload", err)
	}

	var out []byte
	if e.cfg.sealed() {
		out = wire.Pack6699(seq, cmd, nonce, body)
	} else {
		out = wire.Pack55AA(seq, cmd, false, 0, body, e.hmacKey())
	}

	e.logger().Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: e.connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryFrame,
		RemoteAddr:   e.cfg.addr(),
		DeviceID:     e.cfg.DeviceID,
		FrameParse: &log.FrameParseEvent{
			Seq:        seq,
			Command:    cmd,
			Sealed:     e.cfg.sealed(),
			PayloadLen: len(jsonPayload),
		},
	})

	_, err = e.conn.Write(out)
	return err
}

// recvApp reads one application frame, retrying past a handful of
// empty-body replies some devices send while still preparing their
// real answer.
func (e *Engine) recvApp(hadHeader bool) (body []byte, invalid bool, retCode uint32, err error) {
	retries, delay := 2, 50*time.Millisecond
	if e.cfg.sealed() {
		retries, delay = 4, 100*time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		var plain []byte
		var inv, hasRC bool
		var rc, fseq, fcmd uint32

		if e.cfg.sealed() {
			f, ferr := e.readRawFrame6699()
			if ferr != nil {
				return nil, false, 0, ferr
			}
			fseq, fcmd = f.Seq, f.Command
			plain, err = e.decodePayload6699(f, hadHeader)
			if err != nil {
				return nil, false, 0, tuyaerr.Wrap(tuyaerr.Crypto, "session.recv", "failed to decrypt 6699 payload", err)
			}
			inv = false
		} else {
			f, ferr := e.readRawFrame55AA()
			if ferr != nil {
				return nil, false, 0, ferr
			}
			plain, err = e.decodePayload55AA(f.Payload, hadHeader)
			if err != nil {
				return nil, false, 0, tuyaerr.Wrap(tuyaerr.Crypto, "session.recv", "failed to decrypt 55AA payload", err)
			}
			fseq, fcmd = f.Seq, f.Command
			inv = f.Invalid
			hasRC = f.HasRetCode
			if f.HasRetCode {
				rc = f.RetCode
			}
		}

		e.logger().Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: e.connID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryFrame,
			RemoteAddr:   e.cfg.addr(),
			DeviceID:     e.cfg.DeviceID,
			FrameParse: &log.FrameParseEvent{
				Seq:        fseq,
				Command:    fcmd,
				Sealed:     e.cfg.sealed(),
				Invalid:    inv,
				HasRetCode: hasRC,
				RetCode:    rc,
				PayloadLen: len(plain),
			},
		})

		if len(plain) == 0 && attempt < retries {
			time.Sleep(delay)
			continue
		}
		return plain, inv, rc, nil
	}
}

// negotiate is defined in negotiate.go.
