package tuya

// opOptions collects the functional options applied to one Device
// operation.
type opOptions struct {
	nowait bool
}

// Option configures a single Device operation call.
type Option func(*opOptions)

// NoWait makes the operation return immediately after the write,
// without waiting for the device's response. The returned Response has
// Success set true unconditionally.
func NoWait() Option {
	return func(o *opOptions) {
		o.nowait = true
	}
}

func resolveOptions(opts []Option) opOptions {
	var o opOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
