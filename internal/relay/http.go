package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/gophwallet/internal/logging"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// NewRouter mounts the relay operations under /v1.
func NewRouter(h Handler, limiter *RateLimiter, logger logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(api chi.Router) {
		api.Use(limiter.Middleware)
		for _, op := range []string{OpConnect, OpDisconnect, OpAddress} {
			api.Post("/"+op, operation(h, op, logger))
		}
	})
	return r
}

func operation(h Handler, op string, logger logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, map[string]string{"err": fmt.Sprintf("read body: %v", err)})
			return
		}

		res := Dispatch(ctx, h, op, body)
		if res.Failed() {
			logger.Debug(ctx, "relay call failed", "op", op, "err", res.Err)
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

// HTTPServer serves the relay router until its context ends.
type HTTPServer struct {
	srv    *http.Server
	logger logging.Logger
}

// NewHTTPServer serves h on addr. A nil limiter disables rate limiting.
func NewHTTPServer(addr string, h Handler, limiter *RateLimiter, logger logging.Logger) *HTTPServer {
	logger = logger.With("module", "relay-http")
	return &HTTPServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, limiter, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run listens on the configured address and shuts down gracefully when ctx
// is done. Connect calls may block for their own timeout, so no write
// timeout is set.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs on an existing listener until ctx is done.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "relay listening", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
