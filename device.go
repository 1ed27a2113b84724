package tuya

import (
	"context"
	"sync"
	"time"

	"github.com/tuya-lan/tuya-go/pkg/catalog"
	"github.com/tuya-lan/tuya-go/pkg/session"
)

// Response is the normalized result of one device operation.
type Response = session.Response

// Device is a client for one Tuya LAN device. It is safe for
// concurrent use: operations serialize against each other through the
// underlying session engine.
type Device struct {
	cfg    Config
	engine *session.Engine

	mu       sync.Mutex
	cached   Response
	hasCache bool
}

// New validates cfg and builds a Device. It does not connect; the
// first operation opens the socket (and negotiates a session key, for
// 3.4/3.5) on demand.
func New(cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.normalize()
	return &Device{
		cfg:    cfg,
		engine: session.NewEngine(cfg.toSessionConfig()),
	}, nil
}

// Status queries the device's full data-point snapshot.
func (d *Device) Status(ctx context.Context, opts ...Option) (Response, error) {
	return d.do(ctx, catalog.DPQuery, catalog.BuildParams{}, opts)
}

// SetStatus toggles one switch data point identified by switchNum
// (e.g. "1" for a single-switch device, "2" for the second gang of a
// multi-gang switch).
func (d *Device) SetStatus(ctx context.Context, on bool, switchNum string, opts ...Option) (Response, error) {
	return d.SetValue(ctx, switchNum, on, opts...)
}

// SetValue sets one arbitrary data point.
func (d *Device) SetValue(ctx context.Context, index string, value any, opts ...Option) (Response, error) {
	return d.SetMultipleValues(ctx, map[string]any{index: value}, opts...)
}

// SetMultipleValues sets several data points in a single request.
func (d *Device) SetMultipleValues(ctx context.Context, values map[string]any, opts ...Option) (Response, error) {
	return d.do(ctx, catalog.Control, catalog.BuildParams{Dps: values}, opts)
}

// TurnOn is a thin wrapper over SetStatus(ctx, true, switchNum).
func (d *Device) TurnOn(ctx context.Context, switchNum string, opts ...Option) (Response, error) {
	return d.SetStatus(ctx, true, switchNum, opts...)
}

// TurnOff is a thin wrapper over SetStatus(ctx, false, switchNum).
func (d *Device) TurnOff(ctx context.Context, switchNum string, opts ...Option) (Response, error) {
	return d.SetStatus(ctx, false, switchNum, opts...)
}

// Heartbeat sends the keepalive command devices expect on a persistent
// connection.
func (d *Device) Heartbeat(ctx context.Context, opts ...Option) (Response, error) {
	return d.do(ctx, catalog.Heartbeat, catalog.BuildParams{}, opts)
}

// UpdateDps asks the device to push fresh readings for the listed
// data-point indices.
func (d *Device) UpdateDps(ctx context.Context, indices []int, opts ...Option) (Response, error) {
	return d.do(ctx, catalog.UpdateDps, catalog.BuildParams{DpIDs: indices}, opts)
}

// CachedStatus returns the most recent successful Status/SetValue
// response observed on this Device without performing any network I/O.
// The second return value is false if no response has been cached yet.
func (d *Device) CachedStatus() (Response, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cached, d.hasCache
}

// Close tears the underlying socket down. It never fails; the only
// error the engine's Close can return is from the socket's own Close,
// which is not actionable by the caller.
func (d *Device) Close() error {
	_ = d.engine.Close()
	return nil
}

func (d *Device) do(ctx context.Context, cmd catalog.Command, params catalog.BuildParams, opts []Option) (Response, error) {
	o := resolveOptions(opts)
	params.DeviceID = d.cfg.DeviceID
	params.Timestamp = time.Now().Unix()

	resp, err := d.engine.Do(ctx, cmd, params, o.nowait)
	if err != nil {
		return Response{}, err
	}
	if !resp.Success {
		if resp.RetCode != 0 {
			resp.Error = parseErrorCode(resp.RetCode)
		} else {
			resp.Error = "response trailer failed verification"
		}
	}
	d.cacheIfStatus(cmd, resp)
	return resp, nil
}

func (d *Device) cacheIfStatus(cmd catalog.Command, resp Response) {
	if !resp.Success || resp.Dps == nil {
		return
	}
	switch cmd {
	case catalog.DPQuery, catalog.Control:
		d.mu.Lock()
		d.cached = resp
		d.hasCache = true
		d.mu.Unlock()
	}
}
