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

// Package query builds the count, paged select, insert, update and delete
// statements of the console from resolved table metadata. It performs no
// I/O. Values are always bound through "?" placeholders; table and column
// names are interpolated only after they are found in the descriptor.
package query

import (
	"strings"

	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun/dialect"
)

// Builder builds statements for one SQL dialect.
type Builder struct {
	dialect dialect.Name
}

// NewBuilder returns a builder quoting identifiers for d.
func NewBuilder(d dialect.Name) *Builder {
	return &Builder{dialect: d}
}

// Ident quotes name for the builder's dialect, doubling embedded quotes.
func (b *Builder) Ident(name string) string {
	q := `"`
	if b.dialect == dialect.MySQL {
		q = "`"
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// LikeOperator is ILIKE on PostgreSQL and LIKE elsewhere, where LIKE is
// already case-insensitive for ASCII.
func (b *Builder) LikeOperator() string {
	if b.dialect == dialect.PG {
		return "ILIKE"
	}
	return "LIKE"
}

// Count builds "SELECT count(*) FROM t [WHERE col LIKE ?]".
func (b *Builder) Count(desc *types.TableDescriptor, filter *types.QueryFilter) (types.Statement, error) {
	const op = "count"
	if err := checkTable(op, desc); err != nil {
		return types.Statement{}, err
	}
	var sb strings.Builder
	args := make([]interface{}, 0, 1)
	sb.WriteString("SELECT count(*) FROM ")
	sb.WriteString(b.Ident(desc.Name))
	if err := b.appendFilter(op, &sb, &args, desc, filter); err != nil {
		return types.Statement{}, err
	}
	return types.Statement{Query: sb.String(), Args: args}, nil
}

// Select builds the paged select ordered by the first column.
func (b *Builder) Select(desc *types.TableDescriptor, filter *types.QueryFilter, pageIndex, pageSize int) (types.Statement, error) {
	const op = "select"
	if err := checkTable(op, desc); err != nil {
		return types.Statement{}, err
	}
	if pageSize < 1 {
		return types.Statement{}, types.Errorf(types.ValidationError, op, "page size must be positive, got %d", pageSize)
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	var sb strings.Builder
	args := make([]interface{}, 0, 3)
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(b.Ident(desc.Name))
	if err := b.appendFilter(op, &sb, &args, desc, filter); err != nil {
		return types.Statement{}, err
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(b.Ident(desc.Columns[0]))
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, pageSize, pageIndex*pageSize)
	return types.Statement{Query: sb.String(), Args: args}, nil
}

// SelectByKey builds a select of the single row whose key equals key.
func (b *Builder) SelectByKey(desc *types.TableDescriptor, key string) (types.Statement, error) {
	const op = "select by key"
	if err := checkKeyed(op, desc, key); err != nil {
		return types.Statement{}, err
	}
	q := "SELECT * FROM " + b.Ident(desc.Name) + " WHERE " + b.Ident(desc.PrimaryKey) + " = ?"
	return types.NewStatement(q, key), nil
}

// Insert builds an insert of draft. The key column is listed only when the
// caller supplies keys; otherwise the store generates it. Every other
// column is listed and blank values are stored as NULL.
func (b *Builder) Insert(desc *types.TableDescriptor, policy types.PrimaryKeyPolicy, draft types.RecordDraft) (types.Statement, error) {
	const op = "insert"
	if err := checkTable(op, desc); err != nil {
		return types.Statement{}, err
	}
	cols := desc.Columns
	if desc.HasPrimaryKey() && !policy.ManualKey {
		cols = desc.NonKeyColumns()
	}
	if policy.ManualKey && desc.HasPrimaryKey() && strings.TrimSpace(draft[desc.PrimaryKey]) == "" {
		return types.Statement{}, types.Errorf(types.ValidationError, op, "field %q is the primary key and must be filled", desc.PrimaryKey)
	}

	table := b.Ident(desc.Name)
	if len(cols) == 0 {
		if b.dialect == dialect.MySQL {
			return types.NewStatement("INSERT INTO " + table + " () VALUES ()"), nil
		}
		return types.NewStatement("INSERT INTO " + table + " DEFAULT VALUES"), nil
	}

	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		names[i] = b.Ident(c)
		marks[i] = "?"
		args[i] = Value(draft[c])
	}
	q := "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	return types.Statement{Query: q, Args: args}, nil
}

// Update builds an update of every non-key column of the row whose key
// equals key. The key column never appears in the SET list.
func (b *Builder) Update(desc *types.TableDescriptor, key string, draft types.RecordDraft) (types.Statement, error) {
	const op = "update"
	if err := checkKeyed(op, desc, key); err != nil {
		return types.Statement{}, err
	}
	cols := desc.NonKeyColumns()
	if len(cols) == 0 {
		return types.Statement{}, types.Errorf(types.ValidationError, op, "table %q has no columns besides its key", desc.Name)
	}
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = b.Ident(c) + " = ?"
		args = append(args, Value(draft[c]))
	}
	args = append(args, key)
	q := "UPDATE " + b.Ident(desc.Name) + " SET " + strings.Join(sets, ", ") + " WHERE " + b.Ident(desc.PrimaryKey) + " = ?"
	return types.Statement{Query: q, Args: args}, nil
}

// Delete builds a single row delete by key equality.
func (b *Builder) Delete(desc *types.TableDescriptor, key string) (types.Statement, error) {
	const op = "delete"
	if err := checkKeyed(op, desc, key); err != nil {
		return types.Statement{}, err
	}
	q := "DELETE FROM " + b.Ident(desc.Name) + " WHERE " + b.Ident(desc.PrimaryKey) + " = ?"
	return types.NewStatement(q, key), nil
}

// Value maps a form value to the bound parameter: blank means NULL.
func Value(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (b *Builder) appendFilter(op string, sb *strings.Builder, args *[]interface{}, desc *types.TableDescriptor, filter *types.QueryFilter) error {
	if filter == nil {
		return nil
	}
	if err := CheckFilter(desc, filter); err != nil {
		return err
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(b.Ident(filter.Column))
	sb.WriteString(" ")
	sb.WriteString(b.LikeOperator())
	sb.WriteString(" ?")
	*args = append(*args, filter.Pattern())
	return nil
}

// CheckFilter rejects a filter whose column is not a column of desc.
func CheckFilter(desc *types.TableDescriptor, filter *types.QueryFilter) error {
	if filter == nil {
		return nil
	}
	if !desc.HasColumn(filter.Column) || !safeIdent(filter.Column) {
		return types.Errorf(types.InvalidFilter, "filter", "column %q is not a column of %q", filter.Column, desc.Name)
	}
	return nil
}

func checkTable(op string, desc *types.TableDescriptor) error {
	if desc == nil || desc.Name == "" || len(desc.Columns) == 0 {
		name := ""
		if desc != nil {
			name = desc.Name
		}
		return types.Errorf(types.NotFound, op, "table %q has no columns", name)
	}
	if !safeIdent(desc.Name) {
		return types.Errorf(types.ValidationError, op, "unsupported table name %q", desc.Name)
	}
	for _, c := range desc.Columns {
		if !safeIdent(c) {
			return types.Errorf(types.ValidationError, op, "unsupported column name %q", c)
		}
	}
	if desc.HasPrimaryKey() && !desc.HasColumn(desc.PrimaryKey) {
		return types.Errorf(types.NotFound, op, "primary key %q is not a column of %q", desc.PrimaryKey, desc.Name)
	}
	return nil
}

func checkKeyed(op string, desc *types.TableDescriptor, key string) error {
	if err := checkTable(op, desc); err != nil {
		return err
	}
	if !desc.HasPrimaryKey() {
		return types.Errorf(types.NotFound, op, "table %q has no primary key", desc.Name)
	}
	if strings.TrimSpace(key) == "" {
		return types.Errorf(types.ValidationError, op, "value of %q must not be blank", desc.PrimaryKey)
	}
	return nil
}

// safeIdent rejects names the placeholder formatter would misread.
func safeIdent(name string) bool {
	return name != "" && !strings.ContainsRune(name, '?')
}
