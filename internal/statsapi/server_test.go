package statsapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/statsboard/datatable"
	"github.com/jpalmerr/statsboard/internal/acquisition"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStats struct {
	counters map[string]acquisition.Counters
	rates    map[string]float64
	capture  float64
}

func (f *fakeStats) Interface(id string) (acquisition.Counters, bool) {
	c, ok := f.counters[id]
	return c, ok
}

func (f *fakeStats) Ethernet(id string) float64 {
	return f.rates[id]
}

func (f *fakeStats) Capture() float64 {
	return f.capture
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	stats := &fakeStats{
		counters: map[string]acquisition.Counters{
			"0": {Interface: "0", ByteCount: 1000, BytesDropped: 1, PacketCount: 10, PacketsDropped: 2, ErrorCount: 3},
			"2": {Interface: "2", ByteCount: 5000},
		},
		rates:   map[string]float64{"0": 9.5, "3": 1.2},
		capture: 10.7,
	}
	return NewServer(stats, 4, testLogger())
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTable(t *testing.T, rec *httptest.ResponseRecorder) (*datatable.Response, *datatable.DataTable) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp, err := datatable.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	require.NotNil(t, resp.Table)
	return resp, resp.Table
}

func TestInterfaceTable(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/stats/interface/?tqx=reqId:7", "/stats/interface?tqx=reqId:7"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, s, path)
			assert.True(t, strings.HasPrefix(rec.Body.String(), datatable.DefaultResponseHandler+"("))

			resp, table := decodeTable(t, rec)
			assert.Equal(t, "7", resp.ReqID)
			assert.Equal(t, datatable.StatusOK, resp.Status)

			var ids []string
			for _, c := range table.Cols {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, []string{"interface", "byteCount", "bytesDropped", "packetCount", "packetsDropped", "errorCount"}, ids)
			assert.Equal(t, datatable.String, table.Cols[0].Type)

			require.Equal(t, 4, table.NumRows())
			for i, want := range []string{"0", "1", "2", "3"} {
				assert.Equal(t, want, table.Text(i, 0))
			}

			v, ok := table.Float(0, 1)
			assert.True(t, ok)
			assert.Equal(t, 1000.0, v)
			v, _ = table.Float(0, 5)
			assert.Equal(t, 3.0, v)
			v, _ = table.Float(1, 1)
			assert.Equal(t, 0.0, v, "interface without data reports zeros")
			v, _ = table.Float(2, 1)
			assert.Equal(t, 5000.0, v)
		})
	}
}

func TestEthernetTable(t *testing.T) {
	s := newTestServer(t)

	resp, table := decodeTable(t, get(t, s, "/stats/ethernet/?tqx=reqId:3"))
	assert.Equal(t, "3", resp.ReqID)

	require.Equal(t, 4, table.NumRows())
	want := []struct {
		label string
		value float64
	}{
		{"Eth0", 9.5},
		{"Eth1", 0},
		{"Eth2", 0},
		{"Eth3", 1.2},
	}
	for i, w := range want {
		assert.Equal(t, w.label, table.Text(i, 0))
		v, ok := table.Float(i, 1)
		assert.True(t, ok)
		assert.Equal(t, w.value, v)
	}
}

func TestCaptureTable(t *testing.T) {
	s := newTestServer(t)

	_, table := decodeTable(t, get(t, s, "/stats/capture/?tqx=reqId:0"))
	require.Equal(t, 1, table.NumRows())
	assert.Equal(t, "Capture", table.Text(0, 0))
	v, _ := table.Float(0, 1)
	assert.Equal(t, 10.7, v)
}

func TestTable_DecodesWithDefaultDecoder(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/stats/capture/")

	table, err := datatable.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, table.NumRows())
}

func TestTable_MissingTQXDefaultsReqID(t *testing.T) {
	s := newTestServer(t)
	resp, _ := decodeTable(t, get(t, s, "/stats/capture/"))
	assert.Equal(t, "0", resp.ReqID)
}

func TestTable_CustomResponseHandler(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/stats/capture/?tqx=reqId:1;responseHandler:onStats")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "onStats("))
}

func TestInterfaceJSON(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/interface/0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var c acquisition.Counters
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&c))
	assert.Equal(t, uint64(1000), c.ByteCount)
	assert.Equal(t, uint64(3), c.ErrorCount)

	rec = get(t, s, "/interface/9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no statistics for interface 9")

	rec = get(t, s, "/interface/eth0")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEthernetAndCaptureJSON(t *testing.T) {
	s := newTestServer(t)

	var eth struct {
		Interface string  `json:"interface"`
		Gbps      float64 `json:"gbps"`
	}
	rec := get(t, s, "/ethernet/0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&eth))
	assert.Equal(t, "0", eth.Interface)
	assert.Equal(t, 9.5, eth.Gbps)

	var capture struct {
		Gbps float64 `json:"gbps"`
	}
	rec = get(t, s, "/capture")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&capture))
	assert.Equal(t, 10.7, capture.Gbps)
}

func TestCORSHeader(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/stats/capture/")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/stats/capture/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/stats/capture/?tqx=reqId:5")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), `"reqId":"5"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestListenAndServe_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	err = newTestServer(t).ListenAndServe(context.Background(), ln.Addr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
}

func TestWithCollector(t *testing.T) {
	collector := acquisition.NewCollector(acquisition.NewFakeSource(4, 11), time.Second, testLogger())
	require.NoError(t, collector.Poll(context.Background()))
	require.NoError(t, collector.Poll(context.Background()))

	s := NewServer(collector, 0, testLogger())
	_, table := decodeTable(t, get(t, s, "/stats/interface/?tqx=reqId:1"))
	require.Equal(t, acquisition.DefaultInterfaces, table.NumRows())
	for i := 0; i < table.NumRows(); i++ {
		v, ok := table.Float(i, 1)
		assert.True(t, ok)
		assert.Greater(t, v, 0.0)
	}
}
