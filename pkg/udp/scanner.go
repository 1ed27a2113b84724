package udp

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tuya-lan/tuya-go/pkg/log"
)

// Ports the Tuya LAN protocol broadcasts discovery announcements on.
const (
	PortLegacy    = 6666
	PortEncrypted = 6667
	Port35        = 7000
)

// solicitAddr is where the one-shot active solicitation is broadcast.
const solicitAddr = "255.255.255.255:7000"

// frameLogTruncate bounds how many raw bytes of a datagram get logged.
const frameLogTruncate = 64

// Scanner runs the passive+active discovery listener.
type Scanner struct {
	// Logger receives a transport-layer event per datagram received and
	// an error-layer event per datagram that fails to decode. Optional.
	Logger log.Logger
}

func (s *Scanner) logger() log.Logger {
	if s.Logger == nil {
		return log.NoopLogger{}
	}
	return s.Logger
}

type datagram struct {
	data []byte
	addr net.Addr
}

// Discover listens on the three discovery ports for window, sending one
// active solicitation broadcast at the start, and returns every distinct
// (by source IP) announcement observed. It returns early if ctx is
// canceled.
func (s *Scanner) Discover(ctx context.Context, window time.Duration) ([]Announcement, error) {
	ports := []int{PortLegacy, PortEncrypted, Port35}
	conns := make([]net.PacketConn, 0, len(ports))
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	for _, port := range ports {
		conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", port))
		if err != nil {
			return nil, fmt.Errorf("udp: listen on port %d: %w", port, err)
		}
		conns = append(conns, conn)
	}

	if err := s.solicit(); err != nil {
		s.logger().Log(log.Event{
			Timestamp: time.Now(),
			Direction: log.DirectionOut,
			Layer:     log.LayerTransport,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerTransport,
				Message: err.Error(),
				Context: "udp.solicit",
			},
		})
	}

	datagrams := make(chan datagram, 32)
	var wg sync.WaitGroup
	readCtx, cancelReads := context.WithCancel(ctx)
	defer cancelReads()

	for _, conn := range conns {
		wg.Add(1)
		go func(conn net.PacketConn) {
			defer wg.Done()
			buf := make([]byte, 2048)
			for {
				if readCtx.Err() != nil {
					return
				}
				_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
				n, addr, err := conn.ReadFrom(buf)
				if err != nil {
					continue
				}
				cp := append([]byte(nil), buf[:n]...)
				select {
				case datagrams <- datagram{data: cp, addr: addr}:
				case <-readCtx.Done():
					return
				}
			}
		}(conn)
	}

	seen := make(map[string]bool)
	var results []Announcement

	deadline := time.After(window)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline:
			break loop
		case dg := <-datagrams:
			s.logDatagram(dg)
			ip := hostOf(dg.addr)
			if seen[ip] {
				continue
			}
			ann, err := decodeDatagram(dg.data)
			if err != nil {
				s.logDecodeError(ip, err)
				continue
			}
			ann.IP = ip
			seen[ip] = true
			results = append(results, ann)
		}
	}

	cancelReads()
	wg.Wait()
	return results, nil
}

// solicit sends the one-shot active broadcast that prompts 3.5 devices
// to announce even outside their normal broadcast interval.
func (s *Scanner) solicit() error {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return err
	}
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", solicitAddr)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"from": "app",
		"t":    time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	_, err = conn.WriteTo(body, dst)
	return err
}

func (s *Scanner) logDatagram(dg datagram) {
	data := dg.data
	truncated := false
	if len(data) > frameLogTruncate {
		data = data[:frameLogTruncate]
		truncated = true
	}
	s.logger().Log(log.Event{
		Timestamp:  time.Now(),
		Direction:  log.DirectionIn,
		Layer:      log.LayerTransport,
		Category:   log.CategoryFrame,
		RemoteAddr: dg.addr.String(),
		Frame: &log.FrameEvent{
			Size:      len(dg.data),
			Data:      data,
			Truncated: truncated,
		},
	})
}

func (s *Scanner) logDecodeError(ip string, err error) {
	s.logger().Log(log.Event{
		Timestamp:  time.Now(),
		Direction:  log.DirectionIn,
		Layer:      log.LayerTransport,
		Category:   log.CategoryError,
		RemoteAddr: ip,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: "udp.decode",
		},
	})
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
