package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khaledhikmat/dfd-go/pipeline"
	"github.com/khaledhikmat/dfd-go/service/cache"
	"github.com/khaledhikmat/dfd-go/service/config"
	"github.com/khaledhikmat/dfd-go/service/lgr"
	"github.com/khaledhikmat/dfd-go/service/storage"
)

// Server is the upload-and-analyze HTTP surface.
type Server struct {
	CfgSvc      config.IService
	Analyzer    pipeline.Analyzer
	StorageSvc  storage.IService
	CacheSvc    cache.IService
	StatsStream chan<- interface{}
	ErrorStream chan<- interface{}

	router chi.Router
}

func NewServer(cfgsvc config.IService, analyzer pipeline.Analyzer, storagesvc storage.IService, cachesvc cache.IService, statsStream, errorStream chan<- interface{}) *Server {
	s := &Server{
		CfgSvc:      cfgsvc,
		Analyzer:    analyzer,
		StorageSvc:  storagesvc,
		CacheSvc:    cachesvc,
		StatsStream: statsStream,
		ErrorStream: errorStream,
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestObserver)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/analyze", s.analyze)
	r.Delete("/cleanup", s.cleanup)

	r.Get("/health/live", s.healthLive)
	r.Get("/health/ready", s.healthReady)
	r.Handle("/metrics", promhttp.Handler())

	prefix := strings.TrimRight(s.CfgSvc.GetStaticURLPrefix(), "/")
	static := http.StripPrefix(prefix, http.FileServer(http.Dir(s.CfgSvc.GetStaticFolder())))
	r.Get(prefix+"/*", noListing(static).ServeHTTP)
	r.Head(prefix+"/*", noListing(static).ServeHTTP)

	return r
}

// noListing hides directory indexes of the static folder.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for at most the mode shutdown time.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.CfgSvc.GetPort()),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads and analysis of large videos are slow.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lgr.Logger.Info("http server listening",
			slog.String("addr", srv.Addr),
			slog.String("static", s.CfgSvc.GetStaticFolder()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.CfgSvc.GetModeMaxShutdownTime())*time.Second)
	defer cancel()

	lgr.Logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
