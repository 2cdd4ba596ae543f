package acquisition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"regexp"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultInterfaces is the number of interfaces a [FakeSource] reports.
	DefaultInterfaces = 4

	// DefaultLoggerPort is the logging system's command port.
	DefaultLoggerPort = 6050

	byteIncrement   = 1_000_000_000
	packetIncrement = byteIncrement / 8000

	maxResponseSize = 1 << 20
)

var responsePattern = regexp.MustCompile(`(?s)<cmd_resp>.*?</cmd_resp>`)

// Source produces <cmd_resp> stats documents.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FakeSource generates stats for a fixed number of interfaces. Every fetch
// advances each counter by a random amount, so counters only grow.
type FakeSource struct {
	mu       sync.Mutex
	rng      *rand.Rand
	counters []Counters
}

// NewFakeSource returns a source for n interfaces numbered from zero, using
// seed for its random increments. n <= 0 uses [DefaultInterfaces].
func NewFakeSource(n int, seed uint64) *FakeSource {
	if n <= 0 {
		n = DefaultInterfaces
	}
	counters := make([]Counters, n)
	for i := range counters {
		counters[i].Interface = strconv.Itoa(i)
	}
	return &FakeSource{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		counters: counters,
	}
}

// Fetch advances the counters and returns them as a stats document.
func (f *FakeSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.counters {
		c := &f.counters[i]
		c.ByteCount += f.rng.Uint64N(byteIncrement + 1)
		c.BytesDropped += f.rng.Uint64N(byteIncrement + 1)
		c.PacketCount += f.rng.Uint64N(packetIncrement + 1)
		c.PacketsDropped += f.rng.Uint64N(packetIncrement + 1)
		c.ErrorCount += f.rng.Uint64N(packetIncrement + 1)
	}
	return renderStats(f.counters)
}

// LoggerSource requests stats from the logging system over a persistent TCP
// connection. A failed exchange closes the connection; the next fetch
// redials.
type LoggerSource struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer

	mu      sync.Mutex
	conn    net.Conn
	pending []byte
}

// NewLoggerSource returns a source talking to the logging system at addr.
// timeout bounds each exchange when the fetch context has no deadline.
func NewLoggerSource(addr string, timeout time.Duration) *LoggerSource {
	return &LoggerSource{addr: addr, timeout: timeout}
}

// Fetch sends [GetStatsCommand] and returns the first complete <cmd_resp>
// block received.
func (s *LoggerSource) Fetch(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := s.dialer.DialContext(ctx, "tcp", s.addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to logging system %s: %w", s.addr, err)
		}
		s.conn = conn
		s.pending = nil
	}

	resp, err := s.exchange(ctx)
	if err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return nil, err
	}
	return resp, nil
}

func (s *LoggerSource) exchange(ctx context.Context) ([]byte, error) {
	deadline, ok := ctx.Deadline()
	if !ok && s.timeout > 0 {
		deadline = time.Now().Add(s.timeout)
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := s.conn.Write([]byte(GetStatsCommand)); err != nil {
		return nil, fmt.Errorf("failed to send stats command: %w", err)
	}

	buf := make([]byte, 4096)
	var readErr error
	for {
		if loc := responsePattern.FindIndex(s.pending); loc != nil {
			resp := bytes.Clone(s.pending[loc[0]:loc[1]])
			s.pending = append(s.pending[:0], s.pending[loc[1]:]...)
			return resp, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to read stats response: %w", readErr)
		}
		if len(s.pending) > maxResponseSize {
			return nil, errors.New("stats response too large")
		}

		var n int
		n, readErr = s.conn.Read(buf)
		s.pending = append(s.pending, buf[:n]...)
	}
}

// Close closes the connection to the logging system, if any.
func (s *LoggerSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
