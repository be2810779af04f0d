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

// Package catalog resolves table metadata from the database catalog.
package catalog

import (
	"context"
	"strings"

	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun/dialect"
)

// InferPrimaryKey returns the column treated as primary key: the first
// column in catalog order. Key constraints are not consulted, so a table
// whose real key is not its first column is handled wrongly.
func InferPrimaryKey(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	return columns[0]
}

// Fetcher runs one catalog query on its own connection.
type Fetcher interface {
	Fetch(ctx context.Context, stmt types.Statement) (*types.ResultSet, error)
	Dialect() dialect.Name
}

// Resolver reads column lists from the catalog. Nothing is cached between
// calls.
type Resolver struct {
	fetcher Fetcher
	schema  string
	logger  database.Logger
}

// NewResolver returns a resolver looking tables up in schema. An empty
// schema means the connection's current database on MySQL and is
// ignored on SQLite.
func NewResolver(fetcher Fetcher, schema string, logger database.Logger) *Resolver {
	if logger == nil {
		logger = database.NewLogger("CATALOG")
	}
	return &Resolver{fetcher: fetcher, schema: schema, logger: logger}
}

// ResolveTable returns the ordered columns of name and its inferred key.
// The name is lower-cased before lookup. A table with no columns, or one
// that does not exist, is NotFound; a failing catalog query is
// MetadataUnavailable.
func (r *Resolver) ResolveTable(ctx context.Context, name string) (*types.TableDescriptor, error) {
	table := strings.ToLower(strings.TrimSpace(name))
	op := "resolve " + table
	if table == "" {
		return nil, types.Errorf(types.NotFound, "resolve", "table name is empty")
	}

	rs, err := r.fetcher.Fetch(ctx, r.columnsStatement(table))
	if err != nil {
		r.logger.Error("Catalog query failed", "table", table, "error", err)
		return nil, metadataError(op, err)
	}
	cols := firstColumn(rs)
	if len(cols) == 0 {
		return nil, types.Errorf(types.NotFound, op, "table %q does not exist or has no columns", table)
	}
	r.logger.Debug("Table resolved", "table", table, "columns", len(cols))
	return &types.TableDescriptor{Name: table, Columns: cols, PrimaryKey: InferPrimaryKey(cols)}, nil
}

// ListTables returns the base tables visible in the schema, sorted.
func (r *Resolver) ListTables(ctx context.Context) ([]string, error) {
	rs, err := r.fetcher.Fetch(ctx, r.tablesStatement())
	if err != nil {
		return nil, metadataError("list tables", err)
	}
	return firstColumn(rs), nil
}

func (r *Resolver) columnsStatement(table string) types.Statement {
	switch r.fetcher.Dialect() {
	case dialect.SQLite:
		return types.NewStatement("SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	case dialect.MySQL:
		if r.schema == "" {
			return types.NewStatement("SELECT column_name FROM information_schema.columns"+
				" WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position", table)
		}
	}
	return types.NewStatement("SELECT column_name FROM information_schema.columns"+
		" WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position", r.schemaOrDefault(), table)
}

func (r *Resolver) tablesStatement() types.Statement {
	switch r.fetcher.Dialect() {
	case dialect.SQLite:
		return types.NewStatement("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	case dialect.MySQL:
		if r.schema == "" {
			return types.NewStatement("SELECT table_name FROM information_schema.tables" +
				" WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name")
		}
	}
	return types.NewStatement("SELECT table_name FROM information_schema.tables"+
		" WHERE table_schema = ? AND table_type = 'BASE TABLE' ORDER BY table_name", r.schemaOrDefault())
}

func (r *Resolver) schemaOrDefault() string {
	if r.schema == "" {
		return "public"
	}
	return r.schema
}

func metadataError(op string, err error) error {
	e := types.Wrap(types.MetadataUnavailable, op, err)
	if ok, sqlErr := database.IsSqlError(err); ok && sqlErr != database.UnknownErr {
		e.Hint = sqlErr.String()
	}
	return e
}

func firstColumn(rs *types.ResultSet) []string {
	out := make([]string, 0, rs.Len())
	if rs == nil {
		return out
	}
	for _, row := range rs.Rows {
		if len(row) > 0 {
			out = append(out, types.FormatValue(row[0]))
		}
	}
	return out
}
