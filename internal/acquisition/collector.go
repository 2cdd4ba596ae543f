package acquisition

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"
)

// MinInterval is the shortest polling interval a [Collector] accepts.
const MinInterval = time.Second

// Collector polls a [Source] and keeps the latest counters and byte rates.
//
// An interface's rate is the change in its byte count divided by the time
// since the previous poll. The first sample of an interface only records
// its counters. All read methods are safe for concurrent use.
type Collector struct {
	source   Source
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.RWMutex
	counters   map[string]Counters
	rates      map[string]float64
	capture    float64
	lastUpdate time.Time
}

// NewCollector creates a collector polling source every interval. Intervals
// shorter than [MinInterval] are raised to it.
func NewCollector(source Source, interval time.Duration, logger *slog.Logger) *Collector {
	if interval < MinInterval {
		interval = MinInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		source:     source,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
		counters:   make(map[string]Counters),
		rates:      make(map[string]float64),
		lastUpdate: time.Now(),
	}
}

// Interval returns the effective polling interval.
func (c *Collector) Interval() time.Duration {
	return c.interval
}

// Run polls immediately and then every interval until ctx is cancelled.
// A failed poll is logged and the previous values are kept.
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.Poll(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("stats poll failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll fetches and applies one stats document.
func (c *Collector) Poll(ctx context.Context) error {
	data, err := c.source.Fetch(ctx)
	if err != nil {
		return err
	}
	interfaces, err := ParseStats(data)
	if err != nil {
		return err
	}
	c.observe(interfaces, c.now())
	return nil
}

func (c *Collector) observe(interfaces map[string]Counters, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dt := now.Sub(c.lastUpdate).Seconds()
	for id, v := range interfaces {
		prev, seen := c.counters[id]
		c.counters[id] = v
		if !seen {
			continue
		}

		rate := 0.0
		if dt > 0 && v.ByteCount >= prev.ByteCount {
			rate = float64(v.ByteCount-prev.ByteCount) / dt
		}
		c.rates[id] = rate
	}

	c.capture = 0
	for _, r := range c.rates {
		c.capture += r
	}
	c.lastUpdate = now

	c.logger.Debug("stats updated", "interfaces", len(interfaces), "capture_bps", c.capture)
}

// Interface returns the latest counters of interface id.
func (c *Collector) Interface(id string) (Counters, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.counters[id]
	return v, ok
}

// Interfaces returns the ids of every interface seen, in numeric order.
func (c *Collector) Interfaces() []string {
	c.mu.RLock()
	ids := make([]string, 0, len(c.counters))
	for id := range c.counters {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Ethernet returns the rate of interface id in Gbps, rounded to one
// decimal. An interface without a rate yet reports 0.
func (c *Collector) Ethernet(id string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gbps(c.rates[id])
}

// Capture returns the combined rate of all interfaces in Gbps, rounded to
// one decimal.
func (c *Collector) Capture() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gbps(c.capture)
}

// gbps converts a byte rate to gigabits per second rounded to one decimal.
func gbps(bytesPerSecond float64) float64 {
	return math.Round(bytesPerSecond*8/1e9*10) / 10
}
