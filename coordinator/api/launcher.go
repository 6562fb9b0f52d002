package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/absmach/voicefed/coordinator"
)

const shutdownTimeout = 5 * time.Second

var _ coordinator.Launcher = (*launcher)(nil)

type launcher struct {
	ctx     context.Context
	handler func() http.Handler
	logger  *slog.Logger
}

// NewLauncher returns a launcher that serves the handler built by handler on
// the requested address until ctx is canceled. The handler is built lazily so
// it can refer to the fully decorated service.
func NewLauncher(ctx context.Context, handler func() http.Handler, logger *slog.Logger) coordinator.Launcher {
	return &launcher{
		ctx:     ctx,
		handler: handler,
		logger:  logger,
	}
}

func (l *launcher) Launch(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	server := &http.Server{
		Handler:           l.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-l.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			l.logger.Warn("aggregation listener shutdown failed", slog.Any("error", err))
		}
	}()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("aggregation listener stopped", slog.Any("error", err))
		}
	}()

	bound := ln.Addr().String()
	l.logger.Info("aggregation listener started", slog.String("address", bound))

	return bound, nil
}
