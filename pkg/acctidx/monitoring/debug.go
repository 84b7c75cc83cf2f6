// Package monitoring serves runtime diagnostics for a running index: pprof
// profiles under /debug/pprof/ and Prometheus metrics under /metrics.
package monitoring

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CVDpl/go-acctidx/internal/common"
)

// Handler returns the diagnostics mux.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartDebugServer listens on addr (for example ":6060" or "127.0.0.1:0")
// and serves Handler in the background. The returned server's Addr holds the
// bound address. Bind errors are returned; serve errors are logged.
func StartDebugServer(addr string, logger common.Logger) (*http.Server, error) {
	if logger == nil {
		logger = common.NewNullLogger()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("debug server error", "addr", srv.Addr, "error", err.Error())
		}
	}()

	logger.Info("debug server listening", "addr", srv.Addr)
	return srv, nil
}

// StopDebugServer gracefully shuts down srv. A nil srv is a no-op.
func StopDebugServer(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
