package statsboard

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/statsboard/datatable"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gaugeTable returns a label/value table with one row per pair.
func gaugeTable(t *testing.T, pairs ...any) *datatable.DataTable {
	t.Helper()
	table := datatable.New(
		datatable.Column{ID: "label", Label: "Label", Type: datatable.String},
		datatable.Column{ID: "value", Label: "Value", Type: datatable.Number},
	)
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := table.AddRow(pairs[i], pairs[i+1]); err != nil {
			t.Fatalf("AddRow() error = %v", err)
		}
	}
	return table
}

// interfaceTable returns an interface statistics table for n interfaces.
func interfaceTable(t *testing.T, n int, bytes float64) *datatable.DataTable {
	t.Helper()
	table := datatable.New(
		datatable.Column{ID: "interface", Label: "Interface", Type: datatable.String},
		datatable.Column{ID: "byteCount", Label: "byteCount", Type: datatable.Number},
		datatable.Column{ID: "bytesDropped", Label: "bytesDropped", Type: datatable.Number},
		datatable.Column{ID: "packetCount", Label: "packetCount", Type: datatable.Number},
		datatable.Column{ID: "packetsDropped", Label: "packetsDropped", Type: datatable.Number},
		datatable.Column{ID: "errorCount", Label: "errorCount", Type: datatable.Number},
	)
	for i := 0; i < n; i++ {
		if err := table.AddRow(string(rune('0'+i)), bytes, 0.0, bytes/8000, 0.0, 0.0); err != nil {
			t.Fatalf("AddRow() error = %v", err)
		}
	}
	return table
}

// reply is a canned backend response.
type reply struct {
	status int
	table  *datatable.DataTable
	errMsg *datatable.Message
	delay  time.Duration
	raw    []byte
}

// fakeBackend serves the stats endpoints from per-path replies, echoing the
// request id the way the real backend does.
type fakeBackend struct {
	t       *testing.T
	mu      sync.Mutex
	replies map[string]reply
	hits    map[string]int
	server  *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		t:       t,
		replies: make(map[string]reply),
		hits:    make(map[string]int),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

// healthy configures the three stats endpoints with valid tables.
func (b *fakeBackend) healthy() *fakeBackend {
	b.set(PathInterface, reply{table: interfaceTable(b.t, 4, 1e9)})
	b.set(PathEthernet, reply{table: gaugeTable(b.t, "Eth0", 1.5, "Eth1", 0.0, "Eth2", 9.2, "Eth3", 4.1)})
	b.set(PathCapture, reply{table: gaugeTable(b.t, "Capture", 14.8)})
	return b
}

func (b *fakeBackend) set(path string, r reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[path] = r
}

func (b *fakeBackend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *fakeBackend) URL() string {
	return b.server.URL
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	rep, ok := b.replies[r.URL.Path]
	b.hits[r.URL.Path]++
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if rep.delay > 0 {
		select {
		case <-time.After(rep.delay):
		case <-r.Context().Done():
			return
		}
	}
	if rep.status != 0 && rep.status != http.StatusOK {
		w.WriteHeader(rep.status)
		return
	}
	if rep.raw != nil {
		_, _ = w.Write(rep.raw)
		return
	}

	resp := datatable.Response{
		ReqID: datatable.ParseTQX(r.URL.Query().Get("tqx")).ReqID,
		Table: rep.table,
	}
	if rep.errMsg != nil {
		resp.Status = datatable.StatusError
		resp.Table = nil
		resp.Errors = []datatable.Message{*rep.errMsg}
	}
	body, err := datatable.Encode(resp, "")
	if err != nil {
		b.t.Errorf("Encode() error = %v", err)
		return
	}
	_, _ = w.Write(body)
}

// recordingSink collects draws and alerts.
type recordingSink struct {
	mu     sync.Mutex
	draws  []Draw
	alerts []Alert
	notify chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 1024)}
}

func (s *recordingSink) Draw(d Draw) {
	s.mu.Lock()
	s.draws = append(s.draws, d)
	s.mu.Unlock()
	s.notify <- struct{}{}
}

func (s *recordingSink) Alert(a Alert) {
	s.mu.Lock()
	s.alerts = append(s.alerts, a)
	s.mu.Unlock()
	s.notify <- struct{}{}
}

// waitFor blocks until at least n events were recorded.
func (s *recordingSink) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		s.mu.Lock()
		got := len(s.draws) + len(s.alerts)
		s.mu.Unlock()
		if got >= n {
			return
		}
		select {
		case <-s.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", n, got)
		}
	}
}

func (s *recordingSink) snapshot() ([]Draw, []Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Draw(nil), s.draws...), append([]Alert(nil), s.alerts...)
}
