package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	prometheusEndpoint = "/metrics"
	shutdownTimeout    = 5 * time.Second
)

// Server exposes the default prometheus registry over HTTP.
type Server struct {
	listener net.Listener
	server   *http.Server
}

// Listen binds listenAddr and returns a server ready to Serve.
func Listen(listenAddr string) (*Server, error) {
	initPrometheusMetrics()
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed listening for metrics on %s", listenAddr)
	}
	mux := http.NewServeMux()
	mux.Handle(prometheusEndpoint, promhttp.Handler())
	return &Server{
		listener: listener,
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: shutdownTimeout},
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve answers metrics requests until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.server.Serve(s.listener)
	}()

	select {
	case err := <-errChan:
		return errors.WithStack(err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := s.server.Shutdown(shutdownCtx)
		if err != nil {
			return errors.WithStack(err)
		}
		err = <-errChan
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WithStack(err)
	}
}
