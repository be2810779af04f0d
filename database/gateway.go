/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Gateway executes statements on pooled connections. Each call holds one
// connection for its whole duration and releases it on every exit path.
type Gateway struct {
	db     *bun.DB
	logger Logger
}

// NewGateway wraps db. A nil logger falls back to the GATEWAY logger.
func NewGateway(db *bun.DB, logger Logger) *Gateway {
	return &Gateway{db: db, logger: loggerOr(logger, "GATEWAY")}
}

// Dialect returns the dialect of the underlying database.
func (g *Gateway) Dialect() dialect.Name {
	return g.db.Dialect().Name()
}

// WithConn acquires a connection, runs fn on it and releases it. Failing to
// acquire the connection is reported as ConnectionUnavailable; errors from
// fn are returned as they are.
func (g *Gateway) WithConn(ctx context.Context, fn func(conn bun.IConn) error) error {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return types.Wrap(types.ConnectionUnavailable, "acquire connection", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			g.logger.Warn("Release connection failed", "error", cerr)
		}
	}()
	return fn(conn)
}

// Fetch runs one query on its own connection.
func (g *Gateway) Fetch(ctx context.Context, stmt types.Statement) (*types.ResultSet, error) {
	var rs *types.ResultSet
	err := g.WithConn(ctx, func(conn bun.IConn) error {
		var err error
		rs, err = Query(ctx, conn, stmt)
		return err
	})
	return rs, err
}

// Execute runs one write statement on its own connection and returns the
// number of affected rows.
func (g *Gateway) Execute(ctx context.Context, stmt types.Statement) (int64, error) {
	var n int64
	err := g.WithConn(ctx, func(conn bun.IConn) error {
		var err error
		n, err = Exec(ctx, conn, stmt)
		return err
	})
	return n, err
}

// Query runs stmt on conn and scans every row.
func Query(ctx context.Context, conn bun.IConn, stmt types.Statement) (*types.ResultSet, error) {
	rows, err := conn.QueryContext(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		return nil, err
	}
	return ScanResultSet(rows)
}

// Count runs a single-value query and returns it as an int.
func Count(ctx context.Context, conn bun.IConn, stmt types.Statement) (int, error) {
	var n int64
	if err := conn.QueryRowContext(ctx, stmt.Query, stmt.Args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Exec runs stmt on conn and returns the affected row count. A driver that
// cannot report the count is an error even though the statement ran.
func Exec(ctx context.Context, conn bun.IConn, stmt types.Statement) (int64, error) {
	res, err := conn.ExecContext(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("statement executed but the affected row count is unknown: %w", err)
	}
	return n, nil
}

// ScanResultSet reads every row of rows into a ResultSet and closes rows.
// Byte slices are converted to strings.
func ScanResultSet(rows *sql.Rows) (*types.ResultSet, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := types.NewResultSet(cols...)
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
