// Package dbtool provides the read-only Postgres introspection and query
// tools. The connection pool is created lazily on first use and shared by
// every tool in the set; the read-only policy gate from package safety is
// applied before any caller-supplied query text reaches the database.
package dbtool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pochehq/agentloop/logging"
	"github.com/pochehq/agentloop/safety"
	"github.com/pochehq/agentloop/tool"
)

// Options configures a Toolset.
type Options struct {
	// MaxRows caps the number of rows returned by db_execute_query; results
	// beyond the cap are dropped and flagged as truncated.
	MaxRows int
	// QueryTimeout bounds each database round-trip.
	QueryTimeout time.Duration
	Logger       logging.Logger
}

// Toolset owns the lazily-created shared connection pool and exposes the
// database tool family. Safe for concurrent use; the pool is concurrency-safe
// and pool creation is guarded by sync.Once.
type Toolset struct {
	dsn          string
	maxRows      int
	queryTimeout time.Duration
	logger       logging.Logger

	once    sync.Once
	pool    *pgxpool.Pool
	poolErr error
}

// New constructs a Toolset for the given connection string. No connection is
// made until the first tool call needs one.
func New(dsn string, optFns ...func(o *Options)) *Toolset {
	opts := Options{
		MaxRows:      100,
		QueryTimeout: 10 * time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Toolset{
		dsn:          dsn,
		maxRows:      opts.MaxRows,
		queryTimeout: opts.QueryTimeout,
		logger:       opts.Logger,
	}
}

// Close releases the pool if it was ever created.
func (t *Toolset) Close() {
	if t.pool != nil {
		t.pool.Close()
	}
}

// Tools returns the database tool family.
func (t *Toolset) Tools() []tool.Tool {
	return []tool.Tool{
		t.listTablesTool(),
		t.describeTableTool(),
		t.executeQueryTool(),
		t.schemaTool(),
	}
}

func (t *Toolset) acquire(ctx context.Context) (*pgxpool.Pool, error) {
	t.once.Do(func() {
		pool, err := pgxpool.New(ctx, t.dsn)
		if err != nil {
			t.poolErr = fmt.Errorf("create connection pool: %w", err)
			return
		}
		t.logger.Info("dbtool.pool.created")
		t.pool = pool
	})
	return t.pool, t.poolErr
}

func (t *Toolset) query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	pool, err := t.acquire(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rowsToMaps(rows)
}

// rowsToMaps materializes a result set as column-name-keyed maps.
func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()
	fields := rows.FieldDescriptions()
	out := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(fields))
		for i, fd := range fields {
			m[string(fd.Name)] = values[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *Toolset) listTablesTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"schema": map[string]any{"type": "string", "description": "Database schema name", "default": "public"},
		},
		"required": []string{},
	}
	return tool.NewFunctionTool(
		"db_list_tables",
		"List all tables in the specified database schema with their sizes",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			schema, _ := args["schema"].(string)
			rows, err := t.query(ctx, `
				SELECT
					table_name,
					pg_size_pretty(pg_total_relation_size(quote_ident(table_name))) as size
				FROM information_schema.tables
				WHERE table_schema = $1 AND table_type = 'BASE TABLE'
				ORDER BY table_name`, schema)
			if err != nil {
				return nil, err
			}
			return map[string]any{"tables": rows}, nil
		},
	)
}

func (t *Toolset) describeTableTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table_name": map[string]any{"type": "string", "description": "Name of the table"},
			"schema":     map[string]any{"type": "string", "description": "Database schema name", "default": "public"},
		},
		"required": []string{"table_name"},
	}
	return tool.NewFunctionTool(
		"db_describe_table",
		"Get detailed information about a table including columns, constraints, and indexes",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			tableName, _ := args["table_name"].(string)
			schema, _ := args["schema"].(string)

			columns, err := t.query(ctx, `
				SELECT
					column_name,
					data_type,
					is_nullable,
					column_default,
					character_maximum_length
				FROM information_schema.columns
				WHERE table_schema = $1 AND table_name = $2
				ORDER BY ordinal_position`, schema, tableName)
			if err != nil {
				return nil, err
			}

			pk, err := t.query(ctx, `
				SELECT a.attname
				FROM pg_index i
				JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
				WHERE i.indrelid = ($1 || '.' || $2)::regclass AND i.indisprimary`, schema, tableName)
			if err != nil {
				return nil, err
			}
			pkCols := make([]any, 0, len(pk))
			for _, row := range pk {
				pkCols = append(pkCols, row["attname"])
			}

			fks, err := t.query(ctx, `
				SELECT
					kcu.column_name,
					ccu.table_name AS foreign_table,
					ccu.column_name AS foreign_column
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
				JOIN information_schema.constraint_column_usage ccu
					ON ccu.constraint_name = tc.constraint_name
				WHERE tc.constraint_type = 'FOREIGN KEY'
					AND tc.table_schema = $1 AND tc.table_name = $2`, schema, tableName)
			if err != nil {
				return nil, err
			}

			indexes, err := t.query(ctx, `
				SELECT indexname, indexdef
				FROM pg_indexes
				WHERE schemaname = $1 AND tablename = $2`, schema, tableName)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"table_name":   tableName,
				"schema":       schema,
				"columns":      columns,
				"primary_key":  pkCols,
				"foreign_keys": fks,
				"indexes":      indexes,
			}, nil
		},
	)
}

func (t *Toolset) executeQueryTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "SQL SELECT query"},
		},
		"required": []string{"query"},
	}
	return tool.NewFunctionTool(
		"db_execute_query",
		"Execute a read-only SQL query. Only SELECT statements are allowed.",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)

			// Policy gate runs before the query text can reach the database.
			if err := safety.CheckReadOnly(query); err != nil {
				t.logger.Warn("dbtool.query.rejected", "reason", err.Error())
				return nil, err
			}

			rows, err := t.query(ctx, query)
			if err != nil {
				return nil, err
			}

			truncated := len(rows) > t.maxRows
			if truncated {
				rows = rows[:t.maxRows]
			}
			return map[string]any{
				"row_count": len(rows),
				"data":      rows,
				"truncated": truncated,
			}, nil
		},
	)
}

func (t *Toolset) schemaTool() tool.Tool {
	params := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{},
	}
	return tool.NewFunctionTool(
		"db_get_schema",
		"Get a complete schema overview showing all tables and their relationships",
		params,
		func(ctx context.Context, _ map[string]any) (any, error) {
			tables, err := t.query(ctx, `
				SELECT
					t.table_name,
					array_agg(
						c.column_name || ' ' || c.data_type
						ORDER BY c.ordinal_position
					) as columns
				FROM information_schema.tables t
				JOIN information_schema.columns c
					ON t.table_name = c.table_name AND t.table_schema = c.table_schema
				WHERE t.table_schema = 'public' AND t.table_type = 'BASE TABLE'
				GROUP BY t.table_name
				ORDER BY t.table_name`)
			if err != nil {
				return nil, err
			}
			byName := make(map[string]any, len(tables))
			for _, row := range tables {
				if name, ok := row["table_name"].(string); ok {
					byName[name] = row["columns"]
				}
			}

			relationships, err := t.query(ctx, `
				SELECT
					tc.table_name as from_table,
					kcu.column_name as from_column,
					ccu.table_name AS to_table,
					ccu.column_name AS to_column
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
				JOIN information_schema.constraint_column_usage ccu
					ON ccu.constraint_name = tc.constraint_name
				WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public'`)
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"tables":        byName,
				"relationships": relationships,
			}, nil
		},
	)
}
