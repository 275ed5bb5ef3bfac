package graph

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"planrec/rules"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore is a Store backed by a Neo4j driver. The driver is safe for
// concurrent use; sessions are not.
type Neo4jStore struct {
	config Config
	driver neo4j.DriverWithContext
	logger *slog.Logger
}

// OpenNeo4j connects to Neo4j, retrying with exponential backoff.
func OpenNeo4j(ctx context.Context, config Config, logger *slog.Logger) (*Neo4jStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	auth := neo4j.BasicAuth(config.Username, config.Password, "")
	driverConfig := func(c *neo4j.Config) {
		if config.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = config.MaxConnectionPoolSize
		}
		c.ConnectionAcquisitionTimeout = config.ConnectionTimeout
		c.MaxTransactionRetryTime = config.MaxTransactionRetryTime
	}

	var lastErr error
	const maxRetries = 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(config.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				logger.Info("connected to neo4j", "uri", config.URI, "attempt", attempt+1)
				return &Neo4jStore{config: config, driver: driver, logger: logger}, nil
			}
			driver.Close(ctx)
		}
		lastErr = err

		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > config.ConnectionTimeout {
			delay = config.ConnectionTimeout
		}
		logger.Warn("neo4j connect failed", "attempt", attempt+1, "retry_in", delay, "err", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to neo4j: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("connect to neo4j after %d attempts: %w", maxRetries, lastErr)
}

// Session opens a new driver session.
func (s *Neo4jStore) Session(ctx context.Context) (Session, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.config.Database})
	return &neo4jSession{sess: sess, logger: s.logger}, nil
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type neo4jSession struct {
	sess   neo4j.SessionWithContext
	logger *slog.Logger
	closed bool
}

func (s *neo4jSession) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	res, err := s.sess.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*neo4j.Record), nil
}

func (s *neo4jSession) write(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	res, err := s.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*neo4j.Record), nil
}

func (s *neo4jSession) UpsertPatient(ctx context.Context, patientID int64, props map[string]any) error {
	const cypher = `MERGE (p:Patient {id: $id}) SET p += $props`
	if _, err := s.write(ctx, cypher, map[string]any{"id": patientID, "props": cleanProps(props)}); err != nil {
		return fmt.Errorf("upsert patient %d: %w", patientID, err)
	}
	return nil
}

func (s *neo4jSession) ConsiderPlans(ctx context.Context, patientID int64, plans []PlanNode) error {
	const cypher = `
MATCH (p:Patient {id: $id})
UNWIND $plans AS row
MERGE (plan:Plan {PlanId: row.PlanId})
SET plan += row
MERGE (p)-[:` + rules.Considers + `]->(plan)
RETURN count(plan) AS n`

	rows := make([]map[string]any, 0, len(plans))
	for _, pl := range plans {
		props := cleanProps(pl.Props)
		props["PlanId"] = pl.PlanID
		if pl.PlanType != "" {
			props["PlanType"] = pl.PlanType
		}
		rows = append(rows, props)
	}

	records, err := s.write(ctx, cypher, map[string]any{"id": patientID, "plans": rows})
	if err != nil {
		return fmt.Errorf("consider plans: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	var n int64
	if len(records) > 0 {
		v, _ := records[0].Get("n")
		n, _ = v.(int64)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrPatientNotFound, patientID)
	}
	return nil
}

func (s *neo4jSession) PlanTypes(ctx context.Context) ([]string, error) {
	const cypher = `
MATCH (plan:Plan) WHERE plan.PlanType IS NOT NULL
RETURN DISTINCT plan.PlanType AS planType ORDER BY planType`

	records, err := s.read(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("plan types: %w", err)
	}
	types := make([]string, 0, len(records))
	for _, r := range records {
		if v, ok := r.Get("planType"); ok {
			if t, ok := v.(string); ok {
				types = append(types, t)
			}
		}
	}
	return types, nil
}

// attributeParams binds attrs as $a0..$aN and returns the WHERE conditions
// requiring every one of them on plan.
func attributeParams(attrs []string, params map[string]any) []string {
	conds := make([]string, len(attrs))
	for i, a := range attrs {
		key := fmt.Sprintf("a%d", i)
		params[key] = a
		conds[i] = fmt.Sprintf("plan[$%s] IS NOT NULL", key)
	}
	return conds
}

func (s *neo4jSession) Medians(ctx context.Context, planType string, attrs []string) (map[string]*float64, error) {
	if err := checkAttributes(attrs); err != nil {
		return nil, err
	}

	params := map[string]any{"planType": planType}
	conds := attributeParams(attrs, params)
	returns := make([]string, len(attrs))
	for i := range attrs {
		returns[i] = fmt.Sprintf("percentileCont(toFloat(plan[$a%d]), 0.5) AS m%d", i, i)
	}
	cypher := "MATCH (plan:Plan) WHERE plan.PlanType = $planType AND " +
		strings.Join(conds, " AND ") +
		" RETURN " + strings.Join(returns, ", ")

	records, err := s.read(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("medians for %s: %w", planType, err)
	}

	out := make(map[string]*float64, len(attrs))
	for i, a := range attrs {
		out[a] = nil
		if len(records) == 0 {
			continue
		}
		v, _ := records[0].Get(fmt.Sprintf("m%d", i))
		if f, ok := v.(float64); ok && !math.IsNaN(f) {
			out[a] = &f
		}
	}
	return out, nil
}

func (s *neo4jSession) MatchRule(ctx context.Context, label string, patientID int64, planType string, thresholds map[string]float64) ([]PlanNode, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	attrs := sortedKeys(thresholds)
	if err := checkAttributes(attrs); err != nil {
		return nil, err
	}

	params := map[string]any{"id": patientID, "planType": planType}
	conds := make([]string, len(attrs))
	for i, a := range attrs {
		params[fmt.Sprintf("a%d", i)] = a
		params[fmt.Sprintf("t%d", i)] = thresholds[a]
		conds[i] = fmt.Sprintf("toFloat(plan[$a%d]) <= $t%d", i, i)
	}

	// label is a catalog rule name, checked above.
	cypher := "MATCH (p:Patient {id: $id}) " +
		"MATCH (plan:Plan) WHERE plan.PlanType = $planType AND " + strings.Join(conds, " AND ") +
		" MERGE (p)-[:`" + label + "`]->(plan)" +
		" RETURN plan ORDER BY plan.PlanId"

	records, err := s.write(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("match rule %s for %s: %w", label, planType, err)
	}
	return planNodes(records, "plan"), nil
}

func (s *neo4jSession) PatientEdges(ctx context.Context, patientID int64) ([]Edge, error) {
	const cypher = `
MATCH (p:Patient {id: $id})-[r]->(plan:Plan)
RETURN plan.PlanId AS planId, plan.PlanType AS planType, type(r) AS label`

	records, err := s.read(ctx, cypher, map[string]any{"id": patientID})
	if err != nil {
		return nil, fmt.Errorf("patient edges: %w", err)
	}
	edges := make([]Edge, 0, len(records))
	for _, r := range records {
		var e Edge
		if v, ok := r.Get("planId"); ok {
			e.PlanID, _ = v.(string)
		}
		if v, ok := r.Get("planType"); ok {
			e.PlanType, _ = v.(string)
		}
		if v, ok := r.Get("label"); ok {
			e.Label, _ = v.(string)
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func (s *neo4jSession) PlansWithRuleCount(ctx context.Context, patientID int64, planType string, min int) ([]PlanNode, error) {
	const cypher = `
MATCH (p:Patient {id: $id})-[r]->(plan:Plan {PlanType: $planType})
WHERE type(r) <> $considers
WITH plan, count(DISTINCT type(r)) AS rules
WHERE rules >= $min
RETURN plan ORDER BY plan.PlanId`

	records, err := s.read(ctx, cypher, map[string]any{
		"id":        patientID,
		"planType":  planType,
		"considers": rules.Considers,
		"min":       int64(min),
	})
	if err != nil {
		return nil, fmt.Errorf("plans with %d rules: %w", min, err)
	}
	return planNodes(records, "plan"), nil
}

func (s *neo4jSession) ClearRuleEdges(ctx context.Context, patientID int64) (int, error) {
	const cypher = `
MATCH (p:Patient {id: $id})-[r]->(:Plan)
WHERE type(r) <> $considers
DELETE r
RETURN count(r) AS n`

	records, err := s.write(ctx, cypher, map[string]any{"id": patientID, "considers": rules.Considers})
	if err != nil {
		return 0, fmt.Errorf("clear rule edges: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	n, _ := records[0].Get("n")
	count, _ := n.(int64)
	return int(count), nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sess.Close(ctx)
}

func planNodes(records []*neo4j.Record, key string) []PlanNode {
	nodes := make([]PlanNode, 0, len(records))
	for _, r := range records {
		v, ok := r.Get(key)
		if !ok {
			continue
		}
		if n, ok := v.(neo4j.Node); ok {
			nodes = append(nodes, planNodeFromProps(n.Props))
		}
	}
	return nodes
}
