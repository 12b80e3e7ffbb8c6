// Package keepalive answers the hosting platform's liveness probe. It
// shares no state with the bot.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const body = "Human verification bot is running!"

type Server struct {
	srv *http.Server
	log *zap.Logger
}

func New(port int, log *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, body)
	})
	return mux
}

// Start serves in the background; a listen failure is logged, not fatal —
// the bot can live without its health check, not the other way around.
func (s *Server) Start() {
	go func() {
		s.log.Info("keepalive listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("keepalive server", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("keepalive shutdown", zap.Error(err))
	}
}
