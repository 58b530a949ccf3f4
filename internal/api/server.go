// Package api exposes the analytics engine and the customer store over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Veraticus/cohortlens/internal/analytics"
	"github.com/Veraticus/cohortlens/internal/model"
	"github.com/Veraticus/cohortlens/internal/storage"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const shutdownTimeout = 10 * time.Second

// CustomerStore is the persistence the API needs.
type CustomerStore interface {
	Ping(ctx context.Context) error
	GetCustomers(ctx context.Context, dateRange *storage.DateRange) ([]model.Customer, error)
	SaveCustomers(ctx context.Context, customers []model.Customer) error
	DeleteCustomer(ctx context.Context, id string) error
	CustomerCount(ctx context.Context) (int, error)
	SaveReport(ctx context.Context, report *storage.SavedReport) error
	GetReport(ctx context.Context, id string) (*storage.SavedReport, error)
	ListReports(ctx context.Context, limit int) ([]storage.ReportSummary, error)
}

// Options configures a Server.
type Options struct {
	Now          func() time.Time
	AllowOrigins []string
	Weights      analytics.Weights
	CLV          analytics.CLVParams
}

// Server serves the HTTP API.
type Server struct {
	store   CustomerStore
	cache   ReportCache
	now     func() time.Time
	router  *gin.Engine
	weights analytics.Weights
	clv     analytics.CLVParams
}

// NewServer builds the router. A nil cache disables report caching.
func NewServer(store CustomerStore, cache ReportCache, opts Options) *Server {
	if cache == nil {
		cache = NopCache{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}

	s := &Server{
		store:   store,
		cache:   cache,
		now:     opts.Now,
		weights: opts.Weights,
		clv:     opts.CLV,
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache"},
		AllowCredentials: !allowsAnyOrigin(opts.AllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthCheck)

	api := r.Group("/api")
	api.GET("/periods", s.listPeriods)
	api.POST("/analyze", s.analyzeUpload)
	api.GET("/analyze", s.analyzeStored)
	api.POST("/customers", s.importCustomers)
	api.DELETE("/customers/:id", s.deleteCustomer)
	api.GET("/reports", s.listReports)
	api.GET("/reports/:id", s.getReport)

	s.router = r
	return s
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
