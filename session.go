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

package parkdesk

import (
	"context"

	"github.com/tomoncle/parkdesk/access"
	"github.com/tomoncle/parkdesk/backup"
	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/editor"
	"github.com/tomoncle/parkdesk/export"
	"github.com/tomoncle/parkdesk/pager"
	"github.com/tomoncle/parkdesk/query"
	"github.com/tomoncle/parkdesk/report"
	"github.com/tomoncle/parkdesk/types"
)

// TableInfo is what the presentation layer needs to know about a table.
type TableInfo struct {
	*types.TableDescriptor
	Policy types.PrimaryKeyPolicy
}

// Result is the outcome of a committed write.
type Result struct {
	RowsAffected int64
	Page         *types.Page
}

// Session is the explicit context of one logged-in user: the role, the
// page cursor and the last result set. It is not safe for concurrent use.
// Every operation checks the role before any I/O.
type Session struct {
	login     string
	role      types.Role
	console   *Console
	engine    *pager.Engine
	committer *editor.Committer
	runner    *report.Runner
	dumper    *backup.Dumper
	last      *types.ResultSet
	logger    database.Logger
}

func (s *Session) Login() string { return s.login }

func (s *Session) Role() types.Role { return s.role }

// Can reports whether the role allows op.
func (s *Session) Can(op types.Operation) bool { return access.Allowed(s.role, op) }

// State returns a copy of the page cursor, nil before a table is opened.
func (s *Session) State() *types.PageState { return s.engine.State() }

// Page returns the last loaded page of the open table.
func (s *Session) Page() *types.Page { return s.engine.Current() }

// LastResult is the result set of the last page or report.
func (s *Session) LastResult() *types.ResultSet { return s.last }

// WithDumper replaces the backup runner of the session.
func (s *Session) WithDumper(d *backup.Dumper) *Session {
	s.dumper = d
	return s
}

func (s *Session) authorize(op types.Operation) error {
	if err := access.Authorize(s.role, op); err != nil {
		s.logger.Warn("Operation denied", "login", s.login, "role", s.role.Name(), "op", op.Name())
		return err
	}
	return nil
}

// ListTables returns the tables of the schema.
func (s *Session) ListTables(ctx context.Context) ([]string, error) {
	if err := s.authorize(types.OpView); err != nil {
		return nil, err
	}
	return s.console.resolver.ListTables(ctx)
}

// Describe returns the columns, key and key policy of name.
func (s *Session) Describe(ctx context.Context, name string) (*TableInfo, error) {
	if err := s.authorize(types.OpView); err != nil {
		return nil, err
	}
	desc, err := s.console.resolver.ResolveTable(ctx, name)
	if err != nil {
		return nil, err
	}
	return &TableInfo{TableDescriptor: desc, Policy: s.console.policies.Policy(desc.Name)}, nil
}

// OpenTable shows the first page of name without a filter.
func (s *Session) OpenTable(ctx context.Context, name string) (*types.Page, error) {
	if err := s.authorize(types.OpBrowse); err != nil {
		return nil, err
	}
	return s.track(s.engine.Show(ctx, name))
}

// SetFilter filters the open table on column containing value and shows
// the first matching page.
func (s *Session) SetFilter(ctx context.Context, column, value string) (*types.Page, error) {
	if err := s.authorize(types.OpBrowse); err != nil {
		return nil, err
	}
	return s.track(s.engine.SetFilter(ctx, column, value))
}

func (s *Session) ClearFilter(ctx context.Context) (*types.Page, error) {
	if err := s.authorize(types.OpBrowse); err != nil {
		return nil, err
	}
	return s.track(s.engine.ClearFilter(ctx))
}

// GoToPage moves delta pages, saturating at both ends.
func (s *Session) GoToPage(ctx context.Context, delta int) (*types.Page, error) {
	if err := s.authorize(types.OpBrowse); err != nil {
		return nil, err
	}
	return s.track(s.engine.GoToPage(ctx, delta))
}

// Reload loads the current page again.
func (s *Session) Reload(ctx context.Context) (*types.Page, error) {
	if err := s.authorize(types.OpView); err != nil {
		return nil, err
	}
	return s.track(s.engine.Reload(ctx))
}

// Get reads the row of the open table whose key equals key.
func (s *Session) Get(ctx context.Context, key string) (types.Record, error) {
	if err := s.authorize(types.OpView); err != nil {
		return types.Record{}, err
	}
	_, rec, err := s.get(ctx, key)
	return rec, err
}

func (s *Session) get(ctx context.Context, key string) (*types.TableDescriptor, types.Record, error) {
	desc, err := s.openDescriptor(ctx, "get")
	if err != nil {
		return nil, types.Record{}, err
	}
	stmt, err := query.NewBuilder(s.console.gateway.Dialect()).SelectByKey(desc, key)
	if err != nil {
		return nil, types.Record{}, err
	}
	rs, err := s.console.gateway.Fetch(ctx, stmt)
	if err != nil {
		return nil, types.Record{}, database.WrapError(types.StatementFailed, "get "+desc.Name, err)
	}
	if rs.Len() == 0 {
		return nil, types.Record{}, types.Errorf(types.NotFound, "get "+desc.Name, "no row with %s = %q", desc.PrimaryKey, key)
	}
	return desc, rs.Record(0), nil
}

// BeginAdd opens an empty form for the open table.
func (s *Session) BeginAdd(ctx context.Context) (*editor.Form, error) {
	if err := s.authorize(types.OpAdd); err != nil {
		return nil, err
	}
	desc, err := s.openDescriptor(ctx, "begin add")
	if err != nil {
		return nil, err
	}
	return editor.BeginAdd(desc, s.console.policies.Policy(desc.Name))
}

// BeginUpdate opens a form filled with the row whose key equals key.
func (s *Session) BeginUpdate(ctx context.Context, key string) (*editor.Form, error) {
	if err := s.authorize(types.OpUpdate); err != nil {
		return nil, err
	}
	desc, rec, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return editor.BeginUpdate(desc, s.console.policies.Policy(desc.Name), rec)
}

// Commit runs the insert or update of form and reloads the open table.
// A rejected statement leaves the cursor as it was.
func (s *Session) Commit(ctx context.Context, form *editor.Form) (*Result, error) {
	if err := s.authorize(form.Operation()); err != nil {
		return nil, err
	}
	n, err := s.committer.Commit(ctx, form)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, n)
}

// Delete removes the row of the open table whose key equals key and
// reloads the table.
func (s *Session) Delete(ctx context.Context, key string) (*Result, error) {
	if err := s.authorize(types.OpDelete); err != nil {
		return nil, err
	}
	desc, err := s.openDescriptor(ctx, "delete")
	if err != nil {
		return nil, err
	}
	n, err := s.committer.Delete(ctx, desc, key)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, n)
}

// RunReport runs a fixed report. Its rows become the last result.
func (s *Session) RunReport(ctx context.Context, key string, args ...string) (*types.ResultSet, error) {
	if err := s.authorize(types.OpReport); err != nil {
		return nil, err
	}
	rs, err := s.runner.Run(ctx, key, args...)
	if err != nil {
		return nil, err
	}
	s.last = rs
	return rs, nil
}

// Export writes the last result to path.
func (s *Session) Export(path string, format export.Format) error {
	if err := s.authorize(types.OpExport); err != nil {
		return err
	}
	if err := export.ToFile(path, s.last, format); err != nil {
		return err
	}
	s.logger.Info("Result exported", "path", path, "rows", s.last.Len())
	return nil
}

// Backup dumps the database to out and returns the tool's output.
func (s *Session) Backup(ctx context.Context, out string) (string, error) {
	if err := s.authorize(types.OpBackup); err != nil {
		return "", err
	}
	return s.dumper.Dump(ctx, out)
}

func (s *Session) afterWrite(ctx context.Context, n int64) (*Result, error) {
	res := &Result{RowsAffected: n}
	if s.engine.State() == nil {
		return res, nil
	}
	page, err := s.track(s.engine.Reload(ctx))
	res.Page = page
	return res, err
}

func (s *Session) openDescriptor(ctx context.Context, op string) (*types.TableDescriptor, error) {
	st := s.engine.State()
	if st == nil {
		return nil, types.Errorf(types.ValidationError, op, "no table is open")
	}
	return s.console.resolver.ResolveTable(ctx, st.Table)
}

func (s *Session) track(page *types.Page, err error) (*types.Page, error) {
	if err != nil {
		return nil, err
	}
	s.last = page.ResultSet
	return page, nil
}
