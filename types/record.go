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

package types

import (
	"fmt"
	"strconv"
	"time"
)

// TableDescriptor is the resolved shape of a table: its columns in catalog
// order and the column treated as primary key ("" when there is none).
type TableDescriptor struct {
	Name       string
	Columns    []string
	PrimaryKey string
}

// HasColumn reports whether name is one of the resolved columns.
// Identifiers must pass this check before they reach a statement.
func (d *TableDescriptor) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// HasPrimaryKey reports whether a key column was inferred.
func (d *TableDescriptor) HasPrimaryKey() bool {
	return d.PrimaryKey != ""
}

// NonKeyColumns returns the columns other than the primary key, in order.
func (d *TableDescriptor) NonKeyColumns() []string {
	cols := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		if c != d.PrimaryKey {
			cols = append(cols, c)
		}
	}
	return cols
}

// PrimaryKeyPolicy tells whether key values are supplied by the caller
// instead of being generated by the store.
type PrimaryKeyPolicy struct {
	ManualKey bool
}

// ResultSet is the columns and rows returned by one query. It is replaced
// wholesale on every query.
type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

// NewResultSet creates an empty result set with the given columns.
func NewResultSet(columns ...string) *ResultSet {
	return &ResultSet{Columns: columns, Rows: make([][]interface{}, 0)}
}

// Len returns the number of rows, 0 for a nil result set.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// ColumnIndex returns the position of col or -1.
func (rs *ResultSet) ColumnIndex(col string) int {
	for i, c := range rs.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Record returns row i with named accessors.
func (rs *ResultSet) Record(i int) Record {
	return Record{columns: rs.Columns, values: rs.Rows[i]}
}

// Records returns every row as a Record.
func (rs *ResultSet) Records() []Record {
	out := make([]Record, len(rs.Rows))
	for i := range rs.Rows {
		out[i] = rs.Record(i)
	}
	return out
}

// Strings renders every cell with FormatValue.
func (rs *ResultSet) Strings() [][]string {
	out := make([][]string, len(rs.Rows))
	for i, row := range rs.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		out[i] = cells
	}
	return out
}

// Record is one row of a ResultSet: an ordered column list and the
// positional values that go with it.
type Record struct {
	columns []string
	values  []interface{}
}

// NewRecord pairs columns with values. Missing values are treated as NULL.
func NewRecord(columns []string, values []interface{}) Record {
	v := make([]interface{}, len(columns))
	copy(v, values)
	return Record{columns: columns, values: v}
}

func (r Record) Columns() []string { return r.columns }

func (r Record) Values() []interface{} { return r.values }

func (r Record) Get(col string) (interface{}, bool) {
	for i, c := range r.columns {
		if c == col {
			return r.values[i], true
		}
	}
	return nil, false
}

// Text returns the display form of col, "" for NULL or unknown columns.
func (r Record) Text(col string) string {
	v, _ := r.Get(col)
	return FormatValue(v)
}

// Draft converts the record into form values keyed by column.
func (r Record) Draft() RecordDraft {
	d := make(RecordDraft, len(r.columns))
	for i, c := range r.columns {
		d[c] = FormatValue(r.values[i])
	}
	return d
}

// RecordDraft holds the field values gathered by one add or update form.
type RecordDraft map[string]string

// FormatValue renders a scanned cell for display and export. NULL is "".
func FormatValue(val interface{}) string {
	if val == nil {
		return ""
	}
	switch v := val.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return formatTime(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatTime(t time.Time) string {
	switch {
	case t.Year() == 0 && t.YearDay() == 1:
		return t.Format("15:04:05.999999999")
	case t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0:
		return t.Format("2006-01-02")
	default:
		return t.Format("2006-01-02 15:04:05.999999999")
	}
}
