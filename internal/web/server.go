package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type Config struct {
	Addr string
	// RequestTimeout bounds one generation call; a request may make two.
	RequestTimeout time.Duration
}

// Serve runs the form server until ctx is cancelled, then shuts it down
// gracefully.
func Serve(ctx context.Context, cfg Config, proc Processor, log *zap.Logger) error {
	if ctx == nil {
		return errors.New("web: context is nil")
	}
	if cfg.Addr == "" {
		return errors.New("web: addr is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	handler, err := NewHandler(proc, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if cfg.RequestTimeout > 0 {
		server.WriteTimeout = 2*cfg.RequestTimeout + readHeaderTimeout
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) || err == nil {
			return nil
		}
		return err
	}
}
