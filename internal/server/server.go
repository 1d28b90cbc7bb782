package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/questline/huntapi/internal/media"
)

// Deps carries everything the HTTP surface needs. Main wires it up.
type Deps struct {
	Logger   *slog.Logger
	DB       *sql.DB
	Store    Store
	Redis    *redis.Client
	Uploader media.Uploader
}

type Server struct {
	srv      *http.Server
	logger   *slog.Logger
	pipeline *Pipeline
	broker   *Broker
}

// Broker exposes the in-process event bus so background loops outside the
// HTTP surface (like the upload sweep) publish to the same subscribers.
func (s *Server) Broker() *Broker {
	return s.broker
}

func New(addr string, deps Deps) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	broker := NewBroker()
	leaderboard := NewLeaderboard(deps.Redis, deps.Logger)
	pipeline := NewPipeline(deps.Store, deps.Uploader, broker, deps.Logger)
	reviewer := NewReviewer(deps.Store, deps.Uploader, broker, leaderboard, deps.Logger)

	addRoutes(r, deps, broker, pipeline, reviewer, leaderboard)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger:   deps.Logger,
		pipeline: pipeline,
		broker:   broker,
	}
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	// Let in-flight photo transfers settle before the process exits.
	s.pipeline.Wait()
	return nil
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
