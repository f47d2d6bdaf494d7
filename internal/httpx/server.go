package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server runs the API with a bounded drain on shutdown. Realtime upgrades
// hang off the same handler, so the drain window also caps how long open
// websocket handshakes can hold the process.
type Server struct {
	srv   *http.Server
	drain time.Duration
}

func New(addr string, h http.Handler, drain time.Duration) *Server {
	if drain <= 0 {
		drain = 5 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		drain: drain,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to the configured window.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), s.drain)
		defer cancel()
		_ = s.srv.Shutdown(drainCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
