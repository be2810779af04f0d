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

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tomoncle/parkdesk"
	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/report"
	"github.com/tomoncle/parkdesk/types"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func headerRow(cols []string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

// renderResultSet prints rs as a table followed by its row count.
func renderResultSet(w io.Writer, rs *types.ResultSet) {
	if rs == nil || len(rs.Columns) == 0 {
		_, _ = fmt.Fprintln(w, "(no result)")
		return
	}
	t := newTable(w)
	t.AppendHeader(headerRow(rs.Columns))
	for _, cells := range rs.Strings() {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", rs.Len())
}

// renderPage prints one page of a table and the cursor position.
func renderPage(w io.Writer, page *types.Page, filter *types.QueryFilter) {
	if page == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "%s\n", page.Table)
	renderResultSet(w, page.ResultSet)
	footer := fmt.Sprintf("Page %d/%d, %d rows total", page.PageIndex+1, page.TotalPages, page.TotalRows)
	if filter != nil {
		footer += fmt.Sprintf(", filter %s ~ %q", filter.Column, filter.Value)
	}
	_, _ = fmt.Fprintln(w, footer)
}

func renderTableInfo(w io.Writer, info *parkdesk.TableInfo) {
	t := newTable(w)
	t.SetTitle(info.Name)
	t.AppendHeader(table.Row{"#", "column", "key", "editable on add"})
	for i, c := range info.Columns {
		key, editable := "", "yes"
		if c == info.PrimaryKey {
			key = "primary"
			if !info.Policy.ManualKey {
				key = "primary (generated)"
				editable = "no"
			}
		}
		t.AppendRow(table.Row{i + 1, c, key, editable})
	}
	t.Render()
}

// renderRecord prints one row vertically.
func renderRecord(w io.Writer, rec types.Record) {
	t := newTable(w)
	t.AppendHeader(table.Row{"column", "value"})
	for _, c := range rec.Columns() {
		t.AppendRow(table.Row{c, rec.Text(c)})
	}
	t.Render()
}

func renderReports(w io.Writer, defs []*report.Definition) {
	t := newTable(w)
	t.AppendHeader(table.Row{"id", "name", "title", "parameters"})
	for _, d := range defs {
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = p.Name + " " + p.Kind.String()
		}
		t.AppendRow(table.Row{d.ID, d.Name, d.Title, strings.Join(params, ", ")})
	}
	t.Render()
}

func renderTables(w io.Writer, names []string, browse, manual []string) {
	t := newTable(w)
	t.AppendHeader(table.Row{"table", "browse", "manual key"})
	for _, n := range names {
		t.AppendRow(table.Row{n, mark(contains(browse, n)), mark(contains(manual, n))})
	}
	t.Render()
}

func renderStatus(w io.Writer, health *database.HealthStatus, stats *database.DBStats) {
	t := newTable(w)
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRows([]table.Row{
		{"healthy", health.Healthy},
		{"connected", health.Connected},
		{"response time", health.ResponseTime.Round(time.Microsecond)},
		{"open connections", stats.OpenConns},
		{"in use", stats.InUse},
		{"idle", stats.Idle},
		{"max open", stats.MaxOpenConns},
		{"wait count", stats.WaitCount},
	})
	if health.LastError != "" {
		t.AppendRow(table.Row{"last error", health.LastError})
	}
	t.Render()
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
