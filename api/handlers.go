package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"planrec/catalog"
	"planrec/engine"
	"planrec/graph"
	"planrec/model"
	"planrec/patients"
	"planrec/recommend"

	"github.com/gorilla/mux"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000
	// filterPreview caps the plans echoed by /filter-plans.
	filterPreview = 10
)

type patientRef struct {
	PatientID int64 `json:"patient_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, patients.ErrNotFound),
		errors.Is(err, graph.ErrPatientNotFound),
		errors.Is(err, engine.ErrNoCandidates),
		errors.Is(err, engine.ErrNoRules),
		errors.Is(err, engine.ErrNoMatches),
		errors.Is(err, recommend.ErrNoPlans):
		return http.StatusNotFound
	case errors.Is(err, patients.ErrInvalid),
		errors.Is(err, graph.ErrInvalidIdentifier),
		errors.Is(err, recommend.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, recommend.ErrNoProvider):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err,
			"request_id", RequestID(r.Context()))
	}
	writeError(w, status, err.Error())
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid patient id %q", s)
	}
	return id, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

// decodeRef reads {"patient_id": n} from the body.
func decodeRef(r *http.Request) (int64, error) {
	var ref patientRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		return 0, fmt.Errorf("invalid request body: %v", err)
	}
	if ref.PatientID < 1 {
		return 0, errors.New("patient_id is required")
	}
	return ref.PatientID, nil
}

// loadPatient resolves the patient, writing the error response itself.
func (s *Server) loadPatient(w http.ResponseWriter, r *http.Request, id int64) (model.Patient, bool) {
	p, err := s.Patients.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return model.Patient{}, false
	}
	return p, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
	if s.Graph != nil {
		if err := s.Graph.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["graph"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var in patients.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	p, err := s.Patients.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := s.loadPatient(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	skip, err := intParam(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", defaultPageSize)
	if err != nil || limit == 0 || limit > maxPageSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxPageSize))
		return
	}

	plans, err := s.Catalog.ListPlans(r.Context(), skip, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleFilterPlans(w http.ResponseWriter, r *http.Request) {
	id, err := decodeRef(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := s.loadPatient(w, r, id)
	if !ok {
		return
	}

	plans, err := s.Catalog.FilterPlans(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(plans) == 0 {
		writeError(w, http.StatusNotFound, "no plans found for the given criteria")
		return
	}

	total := len(plans)
	if len(plans) > filterPreview {
		plans = plans[:filterPreview]
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_count": total, "plans": plans})
}

func (s *Server) handleProcessPlans(w http.ResponseWriter, r *http.Request) {
	id, err := decodeRef(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := s.loadPatient(w, r, id)
	if !ok {
		return
	}

	res, err := s.Planner.Process(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("patient_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := s.loadPatient(w, r, id); !ok {
		return
	}

	d, err := s.Planner.Distribution(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"patient_id": id, "distribution": d})
}

func nodeProps(nodes []graph.PlanNode) []map[string]any {
	out := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		out[i] = n.Props
	}
	return out
}

func (s *Server) handlePlansByType(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := parseID(vars["patientID"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	planType := vars["planType"]
	if _, ok := s.loadPatient(w, r, id); !ok {
		return
	}

	plans, d, err := s.Planner.SelectPlans(r.Context(), id, planType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(plans) == 0 {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("no %s plans satisfy %d rules", planType, d.MaxRuleCount))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id":         id,
		"selected_plan_type": planType,
		"rule_count":         d.MaxRuleCount,
		"plans":              nodeProps(plans),
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := parseID(q.Get("patient_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	planType, modelName := q.Get("plan_type"), q.Get("model_name")
	if planType == "" || modelName == "" {
		writeError(w, http.StatusBadRequest, "plan_type and model_name are required")
		return
	}
	p, ok := s.loadPatient(w, r, id)
	if !ok {
		return
	}

	nodes, _, err := s.Planner.SelectPlans(r.Context(), id, planType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(nodes) == 0 {
		writeError(w, http.StatusNotFound, "no plans found for the given type")
		return
	}

	plans, err := s.shortList(r, nodes)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	resp, err := s.Recommender.Recommend(r.Context(), p, plans, modelName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"patient_id":      id,
		"plan_type":       planType,
		"recommendations": resp,
	})
}

// shortList returns the full warehouse records of the selected plans,
// falling back to the graph node properties when the warehouse has none.
func (s *Server) shortList(r *http.Request, nodes []graph.PlanNode) ([]map[string]any, error) {
	plans, err := s.Catalog.PlansByID(r.Context(), engine.PlanIDs(nodes))
	if err != nil {
		var rowErr *catalog.RowError
		if !errors.As(err, &rowErr) {
			return nil, err
		}
		s.logger.Warn("warehouse plans unusable, using graph properties", "err", err)
		plans = nil
	}
	if len(plans) == 0 {
		return nodeProps(nodes), nil
	}
	out := make([]map[string]any, len(plans))
	for i := range plans {
		out[i] = plans[i].Attributes()
	}
	return out, nil
}
