// Package sqlite implements the query executor port against a local
// SQLite warehouse mirror.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/chaingate/chaingate/internal/domain/policy"
	"github.com/chaingate/chaingate/internal/domain/query"
	"github.com/chaingate/chaingate/internal/port/outbound"
)

// maskedValue replaces cells in masked columns.
const maskedValue = "***MASKED***"

// Executor runs validated queries against a read-only SQLite handle.
// Implements outbound.QueryExecutor. The row cap and column masking
// from the access policy are applied here, at the last point before
// data leaves the process.
type Executor struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the database file read-only and verifies the connection.
func Open(path string, logger *slog.Logger) (*Executor, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Executor{db: db, logger: logger}, nil
}

// NewExecutor wraps an existing handle (for tests).
func NewExecutor(db *sql.DB, logger *slog.Logger) *Executor {
	return &Executor{db: db, logger: logger}
}

// Close releases the database handle.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Execute runs one validated query. Reading stops one row past the
// policy's MaxRows so truncation is detected without draining the
// cursor; masked columns are blanked per the policy.
func (e *Executor) Execute(ctx context.Context, queryText string, pol policy.AccessPolicy) (*query.ResultSet, error) {
	rows, err := e.db.QueryContext(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", outbound.ErrExecution, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %v", outbound.ErrExecution, err)
	}

	masked := make([]bool, len(cols))
	for i, col := range cols {
		for _, m := range pol.MaskedColumns {
			if strings.EqualFold(col, m) {
				masked[i] = true
				break
			}
		}
	}

	result := &query.ResultSet{Columns: cols}
	values := make([]any, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}

	for rows.Next() {
		if pol.MaxRows > 0 && len(result.Rows) >= pol.MaxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", outbound.ErrExecution, err)
		}

		row := make([]string, len(cols))
		for i, v := range values {
			if masked[i] {
				row[i] = maskedValue
				continue
			}
			row[i] = stringify(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", outbound.ErrExecution, err)
	}

	if result.Truncated {
		e.logger.Debug("result truncated at policy cap",
			"max_rows", pol.MaxRows,
			"level", pol.Level)
	}
	return result, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Compile-time interface verification.
var _ outbound.QueryExecutor = (*Executor)(nil)
