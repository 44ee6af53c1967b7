package plan

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ExplainOptions selects the EXPLAIN flavour used for SQL input.
type ExplainOptions struct {
	// Analyze runs the statement, adding actual timings and buffer usage.
	// The transaction is always rolled back.
	Analyze bool
}

func (o ExplainOptions) prefix() string {
	if o.Analyze {
		return "EXPLAIN (ANALYZE, VERBOSE, BUFFERS, FORMAT JSON) "
	}
	return "EXPLAIN (VERBOSE, FORMAT JSON) "
}

func Execute(ctx context.Context, dbConn string, sql string, opts ExplainOptions) ([]ExplainOutput, error) {
	conn, err := pgx.Connect(ctx, dbConn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var jsonStr string
	err = tx.QueryRow(ctx, opts.prefix()+sql).Scan(&jsonStr)
	if err != nil {
		return nil, fmt.Errorf("executing EXPLAIN: %w", err)
	}

	plans, err := ParseJSONPlan([]byte(jsonStr))
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].QueryText == "" {
			plans[i].QueryText = sql
		}
	}
	return plans, nil
}
