package statsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jpalmerr/statsboard/datatable"
	"github.com/jpalmerr/statsboard/internal/acquisition"
)

const shutdownTimeout = 5 * time.Second

// Stats is the read side of an [acquisition.Collector].
type Stats interface {
	Interface(id string) (acquisition.Counters, bool)
	Ethernet(id string) float64
	Capture() float64
}

// Server is the HTTP surface of the stats backend.
type Server struct {
	stats      Stats
	interfaces int
	logger     *slog.Logger
	router     chi.Router
}

// NewServer creates a server reporting on interfaces 0..interfaces-1.
func NewServer(stats Stats, interfaces int, logger *slog.Logger) *Server {
	if interfaces <= 0 {
		interfaces = acquisition.DefaultInterfaces
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		stats:      stats,
		interfaces: interfaces,
		logger:     logger,
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(s.corsMiddleware)

	// Visualization data sources
	r.Get("/stats/interface", s.handleInterfaceTable)
	r.Get("/stats/ethernet", s.handleEthernetTable)
	r.Get("/stats/capture", s.handleCaptureTable)

	// Plain JSON
	r.Get("/interface/{id:[0-9]+}", s.handleInterface)
	r.Get("/ethernet/{id:[0-9]+}", s.handleEthernet)
	r.Get("/capture", s.handleCapture)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("http_request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
	s.router.ServeHTTP(w, r)
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// Returns nil on graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	s.logger.Info("stats api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("stats api stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stats api shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// --- Visualization data sources ---

func (s *Server) handleInterfaceTable(w http.ResponseWriter, r *http.Request) {
	s.writeTable(w, r, s.interfaceTable())
}

func (s *Server) handleEthernetTable(w http.ResponseWriter, r *http.Request) {
	s.writeTable(w, r, s.ethernetTable())
}

func (s *Server) handleCaptureTable(w http.ResponseWriter, r *http.Request) {
	s.writeTable(w, r, s.captureTable())
}

// interfaceTable lists the counters of every interface. Interfaces without
// data report zeros.
func (s *Server) interfaceTable() *datatable.DataTable {
	table := datatable.New(
		datatable.Column{ID: "interface", Label: "Interface", Type: datatable.String},
		datatable.Column{ID: "byteCount", Label: "byteCount", Type: datatable.Number},
		datatable.Column{ID: "bytesDropped", Label: "bytesDropped", Type: datatable.Number},
		datatable.Column{ID: "packetCount", Label: "packetCount", Type: datatable.Number},
		datatable.Column{ID: "packetsDropped", Label: "packetsDropped", Type: datatable.Number},
		datatable.Column{ID: "errorCount", Label: "errorCount", Type: datatable.Number},
	)
	for i := 0; i < s.interfaces; i++ {
		id := strconv.Itoa(i)
		c, _ := s.stats.Interface(id)
		_ = table.AddRow(id, c.ByteCount, c.BytesDropped, c.PacketCount, c.PacketsDropped, c.ErrorCount)
	}
	return table
}

// ethernetTable lists the rate of every interface in Gbps, ordered by label.
func (s *Server) ethernetTable() *datatable.DataTable {
	table := labelValueTable()
	for i := 0; i < s.interfaces; i++ {
		id := strconv.Itoa(i)
		_ = table.AddRow("Eth"+id, s.stats.Ethernet(id))
	}
	_ = table.SortBy("label")
	return table
}

// captureTable holds the combined capture rate in Gbps.
func (s *Server) captureTable() *datatable.DataTable {
	table := labelValueTable()
	_ = table.AddRow("Capture", s.stats.Capture())
	return table
}

func labelValueTable() *datatable.DataTable {
	return datatable.New(
		datatable.Column{ID: "label", Label: "Label", Type: datatable.String},
		datatable.Column{ID: "value", Label: "Value", Type: datatable.Number},
	)
}

// writeTable answers a visualization query with table, echoing its reqId
// and response handler.
func (s *Server) writeTable(w http.ResponseWriter, r *http.Request, table *datatable.DataTable) {
	tqx := datatable.ParseTQX(r.URL.Query().Get("tqx"))

	body, err := datatable.Encode(datatable.Response{ReqID: tqx.ReqID, Table: table}, tqx.ResponseHandler)
	if err != nil {
		s.logger.Error("failed to encode table", "path", r.URL.Path, "error", err)
		body, _ = datatable.Encode(datatable.Response{
			ReqID:  tqx.ReqID,
			Status: datatable.StatusError,
			Errors: []datatable.Message{{Reason: "internal_error", Message: "Failed to encode table", DetailedMessage: err.Error()}},
		}, tqx.ResponseHandler)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("failed to write table response", "error", err)
	}
}

// --- Plain JSON ---

func (s *Server) handleInterface(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok := s.stats.Interface(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no statistics for interface "+id)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleEthernet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{"interface": id, "gbps": s.stats.Ethernet(id)})
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"gbps": s.stats.Capture()})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
