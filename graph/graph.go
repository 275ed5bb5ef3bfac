// Package graph records which plans a patient considers and which rules each
// plan satisfies. Patients and plans are nodes; CONSIDERS and one
// relationship per satisfied rule connect them.
//
// Every request acquires its own Session from a Store and must Close it on
// all exit paths. Attribute names and rule labels that appear structurally
// in queries are checked against the rule catalog; everything else is bound
// as a parameter.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"planrec/rules"
)

var (
	// ErrInvalidIdentifier is returned for an attribute name or rule label
	// outside the rule catalog.
	ErrInvalidIdentifier = errors.New("invalid graph identifier")
	ErrSessionClosed     = errors.New("graph session closed")
	ErrPatientNotFound   = errors.New("patient node not found")
)

// PlanNode is a Plan node's properties. PlanID and PlanType are lifted out
// of Props for convenience; Props still carries them.
type PlanNode struct {
	PlanID   string
	PlanType string
	Props    map[string]any
}

// Edge is one patient to plan relationship.
type Edge struct {
	PlanID   string
	PlanType string
	Label    string
}

// Store hands out request-scoped sessions.
type Store interface {
	Session(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Session is a unit of work against the graph. It is not safe for
// concurrent use.
type Session interface {
	// UpsertPatient merges the Patient node by id and sets props on it.
	UpsertPatient(ctx context.Context, patientID int64, props map[string]any) error

	// ConsiderPlans merges each Plan node by PlanId, sets its properties and
	// merges a CONSIDERS edge from the patient.
	ConsiderPlans(ctx context.Context, patientID int64, plans []PlanNode) error

	// PlanTypes lists the distinct plan types of every Plan node.
	PlanTypes(ctx context.Context) ([]string, error)

	// Medians returns the median of each attribute over plans of planType
	// that have a value for every attribute in attrs. An attribute with no
	// qualifying plan maps to nil.
	Medians(ctx context.Context, planType string, attrs []string) (map[string]*float64, error)

	// MatchRule connects the patient with a label edge to every plan of
	// planType whose attribute values are all at or below thresholds, and
	// returns those plans ordered by PlanId. Edges are merged, so repeating
	// the call does not add a second edge with the same label.
	MatchRule(ctx context.Context, label string, patientID int64, planType string, thresholds map[string]float64) ([]PlanNode, error)

	// PatientEdges returns every outgoing edge of the patient, CONSIDERS included.
	PatientEdges(ctx context.Context, patientID int64) ([]Edge, error)

	// PlansWithRuleCount returns plans of planType connected to the patient
	// by at least min distinct rule labels, ordered by PlanId.
	PlansWithRuleCount(ctx context.Context, patientID int64, planType string, min int) ([]PlanNode, error)

	// ClearRuleEdges deletes the patient's rule edges, keeping CONSIDERS,
	// and returns how many were removed.
	ClearRuleEdges(ctx context.Context, patientID int64) (int, error)

	Close(ctx context.Context) error
}

// Config configures the Neo4j store.
type Config struct {
	// URI is the bolt or neo4j URI, e.g. "bolt://localhost:7687".
	URI      string
	Username string
	Password string
	// Database name; empty uses the server default.
	Database string

	MaxConnectionPoolSize   int
	ConnectionTimeout       time.Duration
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a Config for a local Neo4j.
func DefaultConfig() Config {
	return Config{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.URI == "" {
		return errors.New("graph: URI cannot be empty")
	}
	if c.Username == "" {
		return errors.New("graph: username cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return errors.New("graph: connection timeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return errors.New("graph: max transaction retry time must be positive")
	}
	return nil
}

func checkAttributes(attrs []string) error {
	if len(attrs) == 0 {
		return fmt.Errorf("%w: empty attribute group", ErrInvalidIdentifier)
	}
	for _, a := range attrs {
		if !rules.IsAttribute(a) {
			return fmt.Errorf("%w: attribute %q", ErrInvalidIdentifier, a)
		}
	}
	return nil
}

func checkLabel(label string) error {
	if !rules.IsRuleLabel(label) {
		return fmt.Errorf("%w: rule label %q", ErrInvalidIdentifier, label)
	}
	return nil
}

// cleanProps drops nil values and widens numeric types to the int64 and
// float64 the graph stores.
func cleanProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch t := v.(type) {
		case nil:
		case int:
			out[k] = int64(t)
		case int32:
			out[k] = int64(t)
		case float32:
			out[k] = float64(t)
		case *float64:
			if t != nil {
				out[k] = *t
			}
		default:
			out[k] = v
		}
	}
	return out
}

func planNodeFromProps(props map[string]any) PlanNode {
	n := PlanNode{Props: props}
	n.PlanID, _ = props["PlanId"].(string)
	n.PlanType, _ = props["PlanType"].(string)
	return n
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
