// Package api serves the recommendation flow over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"planrec/engine"
	"planrec/graph"
	"planrec/model"
	"planrec/patients"
	"planrec/recommend"

	"github.com/gorilla/mux"
)

// PatientStore is the relational patient record.
type PatientStore interface {
	Create(ctx context.Context, in patients.Input) (model.Patient, error)
	Get(ctx context.Context, id int64) (model.Patient, error)
}

// Catalog is the plan warehouse.
type Catalog interface {
	ListPlans(ctx context.Context, skip, limit int) ([]model.Plan, error)
	FilterPlans(ctx context.Context, p model.Patient) ([]model.Plan, error)
	PlansByID(ctx context.Context, ids []string) ([]model.Plan, error)
}

// Recommender ranks a short list with a language model.
type Recommender interface {
	Recommend(ctx context.Context, p model.Patient, plans []map[string]any, modelName string) (recommend.Response, error)
}

type Deps struct {
	Patients    PatientStore
	Catalog     Catalog
	Planner     *engine.Service
	Recommender Recommender
	Graph       graph.Store
}

type Server struct {
	Deps
	logger *slog.Logger
	router *mux.Router
}

func NewServer(d Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Deps: d, logger: logger, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.requestIDMiddleware, s.loggingMiddleware, s.recoveryMiddleware)
	r.StrictSlash(true)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/patients", s.handleCreatePatient).Methods(http.MethodPost)
	r.HandleFunc("/patients/{id}", s.handleGetPatient).Methods(http.MethodGet)
	r.HandleFunc("/insurance-plans", s.handleListPlans).Methods(http.MethodGet)
	r.HandleFunc("/filter-plans", s.handleFilterPlans).Methods(http.MethodPost)
	r.HandleFunc("/process-plans", s.handleProcessPlans).Methods(http.MethodPost)
	r.HandleFunc("/plan-distribution", s.handleDistribution).Methods(http.MethodGet)
	r.HandleFunc("/plans-by-type/{patientID}/{planType}", s.handlePlansByType).Methods(http.MethodGet)
	r.HandleFunc("/recommend-insurance", s.handleRecommend).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to 10 seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
