// Package tuyatest provides a scripted fake device for exercising
// pkg/session without a real socket or physical device, following the
// same net.Pipe pattern the rest of the corpus uses for connection
// tests.
package tuyatest

import (
	"net"
	"time"
)

// FakeDevice is the server half of a net.Pipe standing in for a Tuya
// device. Tests read the client's raw frames off Conn and write raw
// frames back, or drive higher-level helpers in wirescript.go.
type FakeDevice struct {
	Conn net.Conn
}

// Dial returns a session.Dialer that hands back the client half of a
// fresh net.Pipe and starts a FakeDevice on the server half, letting
// tests script device behavior with a goroutine per connection.
func Dial(serve func(*FakeDevice)) func(network, address string, timeout time.Duration) (net.Conn, error) {
	return func(network, address string, timeout time.Duration) (net.Conn, error) {
		client, server := net.Pipe()
		dev := &FakeDevice{Conn: server}
		go serve(dev)
		return client, nil
	}
}

// Close closes the server side of the pipe.
func (d *FakeDevice) Close() error {
	return d.Conn.Close()
}
