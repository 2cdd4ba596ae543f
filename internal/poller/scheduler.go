package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/statsboard/datatable"
)

// TableDecoder turns a successful response body into a table.
//
// This is the poller-internal version of the public decoder type, avoiding
// an import of the root package.
type TableDecoder func(body []byte) (*datatable.DataTable, error)

// QueryInfo contains the configuration needed to issue a single query.
type QueryInfo struct {
	// Name identifies the query in results and logs.
	Name string

	// URL is the stats endpoint to request.
	URL string

	// Widget is the element the query's response is drawn into.
	Widget string

	// Headers contains custom HTTP headers to send with requests.
	Headers map[string]string

	// Timeout is the per-request timeout. Zero means no timeout.
	Timeout time.Duration

	// Decoder converts the response body into a table.
	// If nil, the data source wire protocol decoder is used.
	Decoder TableDecoder
}

// QueryError describes a failed query: a transport failure, an unexpected
// HTTP status, an undecodable body or an error reported by the data source.
type QueryError struct {
	// Message is the short, user-facing description.
	Message string

	// Detailed carries the underlying cause.
	Detailed string

	Err error
}

func (e *QueryError) Error() string {
	if e.Detailed == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detailed
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Result holds the outcome of a single query within a tick.
type Result struct {
	// QueryName is the name of the query.
	QueryName string

	// Widget is the element the response is bound to.
	Widget string

	// URL is the endpoint that was requested, without the tqx argument.
	URL string

	// Tick is the zero-based index of the tick that issued the request.
	Tick uint64

	// ReqID is the request identifier sent in the tqx argument.
	ReqID string

	// Table is the decoded payload. nil when Err is set.
	Table *datatable.DataTable

	// Err is a *QueryError when the query failed.
	Err error

	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int

	// Latency is the time taken by the HTTP request.
	Latency time.Duration

	// CompletedAt is when the result was produced.
	CompletedAt time.Time
}

// tickerFunc starts a periodic timer and returns its channel and a stop func.
type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func newTimeTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Scheduler issues all queries at a fixed interval.
//
// The full query set is issued immediately on [Scheduler.Start] and then on
// every tick. Each query runs in its own goroutine; a tick never waits for
// earlier requests, so slow responses from one tick may overlap the next.
// Results are emitted in completion order. Requests aborted because the
// scheduler stopped produce no result.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	queries   []QueryInfo
	interval  time.Duration
	client    *Client
	results   chan Result
	logger    *slog.Logger
	newTicker tickerFunc

	ctx    context.Context
	cancel context.CancelFunc
	loop   sync.WaitGroup

	// inflight is only incremented from the loop goroutine
	inflight sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	ticks  atomic.Uint64
	reqSeq atomic.Uint64
}

// NewScheduler creates a new [Scheduler] for the given queries.
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler(queries []QueryInfo, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		queries:   queries,
		interval:  interval,
		client:    NewClient(),
		results:   make(chan Result, 2*len(queries)),
		logger:    logger,
		newTicker: newTimeTicker,
	}
}

// Results returns a receive-only channel that emits [Result] values.
//
// The channel is closed once the scheduler has stopped and every in-flight
// request has finished.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Ticks returns the number of ticks fired so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking. It is idempotent, and a no-op after Stop.
// If ctx is nil, context.Background() is used as the parent context.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx
	s.loop.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.loop.Done()
		defer func() {
			s.inflight.Wait()
			s.closeOnce.Do(func() { close(s.results) })
		}()

		s.tick(pollCtx)

		tickC, stop := s.newTicker(s.interval)
		defer stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-tickC:
				s.tick(pollCtx)
			}
		}
	}()
}

// Stop cancels the scheduler and waits for the loop and all in-flight
// requests to finish. Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.loop.Wait()

	if s.client != nil {
		s.client.Close()
	}

	s.closeOnce.Do(func() { close(s.results) })
}

// tick issues every query once without waiting for completion.
func (s *Scheduler) tick(ctx context.Context) {
	n := s.ticks.Add(1) - 1
	s.logger.Debug("tick", "tick", n, "queries", len(s.queries))

	for _, q := range s.queries {
		reqID := strconv.FormatUint(s.reqSeq.Add(1)-1, 10)
		s.inflight.Add(1)
		go func(q QueryInfo) {
			defer s.inflight.Done()
			result := s.query(ctx, q, n, reqID)
			if ctx.Err() != nil && errors.Is(result.Err, context.Canceled) {
				// aborted by shutdown, not a query failure
				s.logger.Debug("query abandoned", "query", q.Name, "tick", n, "req_id", reqID)
				return
			}
			select {
			case s.results <- result:
			case <-ctx.Done():
			}
		}(q)
	}
}

// query issues a single request and decodes its response.
func (s *Scheduler) query(ctx context.Context, q QueryInfo, tick uint64, reqID string) Result {
	result := Result{
		QueryName: q.Name,
		Widget:    q.Widget,
		URL:       q.URL,
		Tick:      tick,
		ReqID:     reqID,
	}

	target, err := datatable.WithTQX(q.URL, datatable.TQX{ReqID: reqID})
	if err != nil {
		result.Err = &QueryError{Message: "Invalid query URL", Detailed: err.Error(), Err: err}
		result.CompletedAt = time.Now()
		return result
	}

	resp := s.client.Fetch(ctx, target, q.Headers, q.Timeout)
	result.StatusCode = resp.StatusCode
	result.Latency = resp.Latency

	switch {
	case resp.Error != nil:
		result.Err = &QueryError{Message: "Request failed", Detailed: resp.Error.Error(), Err: resp.Error}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		result.Err = &QueryError{
			Message:  fmt.Sprintf("HTTP %d", resp.StatusCode),
			Detailed: http.StatusText(resp.StatusCode),
		}
	default:
		decoder := q.Decoder
		if decoder == nil {
			decoder = datatable.Decode
		}
		table, err := s.safeDecode(decoder, resp.Body)
		if err != nil {
			result.Err = decodeError(err)
		} else {
			result.Table = table
		}
	}

	result.CompletedAt = time.Now()
	return result
}

// decodeError classifies a decoder failure as a data source error or an
// unreadable response.
func decodeError(err error) *QueryError {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}
	var re *datatable.ResponseError
	if errors.As(err, &re) {
		msg := re.Message
		if msg == "" {
			msg = re.Reason
		}
		return &QueryError{Message: msg, Detailed: re.DetailedMessage, Err: err}
	}
	return &QueryError{Message: "Invalid response", Detailed: err.Error(), Err: err}
}

// safeDecode calls the decoder with panic recovery.
// A panic is logged with a correlation ID and returned as an error.
func (s *Scheduler) safeDecode(decoder TableDecoder, body []byte) (table *datatable.DataTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("decoder panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			table = nil
			err = &QueryError{
				Message:  "Decoder failed",
				Detailed: fmt.Sprintf("decoder panic (correlation_id: %s)", correlationID),
			}
		}
	}()

	table, err = decoder(body)
	if err == nil && table == nil {
		err = errors.New("decoder returned no table")
	}
	return table, err
}
