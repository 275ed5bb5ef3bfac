package graph

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"planrec/rules"

	"github.com/montanaflynn/stats"
)

// MemoryStore is an in-process Store with the same merge and comparison
// semantics as the Neo4j queries. It backs tests and single-node demos.
type MemoryStore struct {
	mu       sync.RWMutex
	patients map[int64]map[string]any
	plans    map[string]map[string]any
	edges    map[int64][]Edge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients: make(map[int64]map[string]any),
		plans:    make(map[string]map[string]any),
		edges:    make(map[int64][]Edge),
	}
}

func (m *MemoryStore) Session(ctx context.Context) (Session, error) {
	return &memorySession{store: m}, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

// AddEdge appends a raw edge without merge semantics. Plan and patient nodes
// are created if missing.
func (m *MemoryStore) AddEdge(patientID int64, plan PlanNode, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[patientID]; !ok {
		m.patients[patientID] = map[string]any{"id": patientID}
	}
	m.mergePlan(plan)
	m.edges[patientID] = append(m.edges[patientID], Edge{PlanID: plan.PlanID, PlanType: plan.PlanType, Label: label})
}

// EdgeCount returns the number of stored edges for the patient, duplicates
// included.
func (m *MemoryStore) EdgeCount(patientID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.edges[patientID])
}

// mergePlan requires m.mu held for writing.
func (m *MemoryStore) mergePlan(pl PlanNode) {
	props := cleanProps(pl.Props)
	props["PlanId"] = pl.PlanID
	if pl.PlanType != "" {
		props["PlanType"] = pl.PlanType
	}
	existing, ok := m.plans[pl.PlanID]
	if !ok {
		m.plans[pl.PlanID] = props
		return
	}
	for k, v := range props {
		existing[k] = v
	}
}

// mergeEdge requires m.mu held for writing.
func (m *MemoryStore) mergeEdge(patientID int64, planID, label string) {
	for _, e := range m.edges[patientID] {
		if e.PlanID == planID && e.Label == label {
			return
		}
	}
	planType, _ := m.plans[planID]["PlanType"].(string)
	m.edges[patientID] = append(m.edges[patientID], Edge{PlanID: planID, PlanType: planType, Label: label})
}

func (m *MemoryStore) planNode(planID string) PlanNode {
	props := make(map[string]any, len(m.plans[planID]))
	for k, v := range m.plans[planID] {
		props[k] = v
	}
	return planNodeFromProps(props)
}

type memorySession struct {
	store  *MemoryStore
	closed bool
}

func (s *memorySession) check() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

func (s *memorySession) UpsertPatient(ctx context.Context, patientID int64, props map[string]any) error {
	if err := s.check(); err != nil {
		return err
	}
	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.patients[patientID]
	if !ok {
		node = map[string]any{"id": patientID}
		m.patients[patientID] = node
	}
	for k, v := range cleanProps(props) {
		node[k] = v
	}
	return nil
}

func (s *memorySession) ConsiderPlans(ctx context.Context, patientID int64, plans []PlanNode) error {
	if err := s.check(); err != nil {
		return err
	}
	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(plans) == 0 {
		return nil
	}
	if _, ok := m.patients[patientID]; !ok {
		return fmt.Errorf("%w: id %d", ErrPatientNotFound, patientID)
	}
	for _, pl := range plans {
		m.mergePlan(pl)
		m.mergeEdge(patientID, pl.PlanID, rules.Considers)
	}
	return nil
}

func (s *memorySession) PlanTypes(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	m := s.store
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, props := range m.plans {
		t, ok := props["PlanType"].(string)
		if ok && !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types, nil
}

// qualifying returns the plans of planType that have every attribute set.
// Requires m.mu held.
func (m *MemoryStore) qualifying(planType string, attrs []string) []map[string]any {
	var out []map[string]any
	for _, props := range m.plans {
		if props["PlanType"] != planType {
			continue
		}
		complete := true
		for _, a := range attrs {
			if props[a] == nil {
				complete = false
				break
			}
		}
		if complete {
			out = append(out, props)
		}
	}
	return out
}

func (s *memorySession) Medians(ctx context.Context, planType string, attrs []string) (map[string]*float64, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := checkAttributes(attrs); err != nil {
		return nil, err
	}
	m := s.store
	m.mu.RLock()
	defer m.mu.RUnlock()

	plans := m.qualifying(planType, attrs)
	out := make(map[string]*float64, len(attrs))
	for _, a := range attrs {
		var data stats.Float64Data
		for _, props := range plans {
			if f, ok := toFloat(props[a]); ok {
				data = append(data, f)
			}
		}
		out[a] = nil
		if len(data) == 0 {
			continue
		}
		med, err := stats.Median(data)
		if err != nil {
			return nil, fmt.Errorf("median of %s: %w", a, err)
		}
		out[a] = &med
	}
	return out, nil
}

func (s *memorySession) MatchRule(ctx context.Context, label string, patientID int64, planType string, thresholds map[string]float64) ([]PlanNode, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	attrs := sortedKeys(thresholds)
	if err := checkAttributes(attrs); err != nil {
		return nil, err
	}

	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.patients[patientID]; !ok {
		return nil, nil
	}

	var matched []string
	for _, props := range m.qualifying(planType, attrs) {
		ok := true
		for _, a := range attrs {
			f, isNum := toFloat(props[a])
			if !isNum || f > thresholds[a] {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, props["PlanId"].(string))
		}
	}
	sort.Strings(matched)

	nodes := make([]PlanNode, 0, len(matched))
	for _, id := range matched {
		m.mergeEdge(patientID, id, label)
		nodes = append(nodes, m.planNode(id))
	}
	return nodes, nil
}

func (s *memorySession) PatientEdges(ctx context.Context, patientID int64) ([]Edge, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	m := s.store
	m.mu.RLock()
	defer m.mu.RUnlock()

	edges := make([]Edge, len(m.edges[patientID]))
	copy(edges, m.edges[patientID])
	return edges, nil
}

func (s *memorySession) PlansWithRuleCount(ctx context.Context, patientID int64, planType string, min int) ([]PlanNode, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	m := s.store
	m.mu.RLock()
	defer m.mu.RUnlock()

	labels := make(map[string]map[string]bool)
	for _, e := range m.edges[patientID] {
		if e.Label == rules.Considers || e.PlanType != planType {
			continue
		}
		if labels[e.PlanID] == nil {
			labels[e.PlanID] = make(map[string]bool)
		}
		labels[e.PlanID][e.Label] = true
	}

	var ids []string
	for id, set := range labels {
		if len(set) >= min {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	nodes := make([]PlanNode, len(ids))
	for i, id := range ids {
		nodes[i] = m.planNode(id)
	}
	return nodes, nil
}

func (s *memorySession) ClearRuleEdges(ctx context.Context, patientID int64) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	m := s.store
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.edges[patientID][:0]
	removed := 0
	for _, e := range m.edges[patientID] {
		if e.Label == rules.Considers {
			kept = append(kept, e)
			continue
		}
		removed++
	}
	m.edges[patientID] = kept
	return removed, nil
}

func (s *memorySession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

// toFloat mirrors Cypher toFloat: numbers convert, numeric strings parse,
// anything else is null.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
