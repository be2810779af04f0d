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

// Package pager keeps the cursor over the current table and loads pages.
// A reload always counts the rows under the current filter, clamps the
// page index into the new bounds and then selects the page, holding one
// connection for both statements.
package pager

import (
	"context"
	"strings"

	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/query"
	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun"
)

// Resolver returns the descriptor of a table.
type Resolver interface {
	ResolveTable(ctx context.Context, name string) (*types.TableDescriptor, error)
}

// Engine is the pagination state of one session. It is not safe for
// concurrent use.
type Engine struct {
	gateway  *database.Gateway
	resolver Resolver
	builder  *query.Builder
	pageSize int
	logger   database.Logger

	state *types.PageState
	desc  *types.TableDescriptor
	page  *types.Page
}

// NewEngine returns an engine with no table open. A page size below one
// falls back to types.DefaultPageSize.
func NewEngine(gateway *database.Gateway, resolver Resolver, pageSize int, logger database.Logger) *Engine {
	if pageSize < 1 {
		pageSize = types.DefaultPageSize
	}
	if logger == nil {
		logger = database.NewLogger("PAGER")
	}
	return &Engine{
		gateway:  gateway,
		resolver: resolver,
		builder:  query.NewBuilder(gateway.Dialect()),
		pageSize: pageSize,
		logger:   logger,
	}
}

// State returns a copy of the current cursor, or nil when no table is open.
func (e *Engine) State() *types.PageState {
	if e.state == nil {
		return nil
	}
	return e.state.Clone()
}

// Descriptor returns the descriptor of the open table.
func (e *Engine) Descriptor() *types.TableDescriptor {
	return e.desc
}

// Current returns the last loaded page.
func (e *Engine) Current() *types.Page {
	return e.page
}

// OpenTable resolves name and resets the cursor to page 0 without a
// filter. Nothing is loaded until Reload. On error the previous table
// stays open.
func (e *Engine) OpenTable(ctx context.Context, name string) (*types.PageState, error) {
	desc, err := e.resolver.ResolveTable(ctx, name)
	if err != nil {
		return nil, err
	}
	e.desc = desc
	e.state = types.NewPageState(desc.Name, e.pageSize)
	e.page = nil
	e.logger.Debug("Table opened", "table", desc.Name, "columns", len(desc.Columns))
	return e.state.Clone(), nil
}

// Show opens name and loads its first page. The previous table stays open
// when either step fails.
func (e *Engine) Show(ctx context.Context, name string) (*types.Page, error) {
	desc, err := e.resolver.ResolveTable(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.load(ctx, desc, types.NewPageState(desc.Name, e.pageSize))
}

// SetFilter restricts the rows to those whose column contains value and
// loads page 0. The column must belong to the open table. An empty column
// or value clears the filter. The cursor keeps its previous filter when the
// load fails.
func (e *Engine) SetFilter(ctx context.Context, column, value string) (*types.Page, error) {
	if err := e.requireOpen("set filter"); err != nil {
		return nil, err
	}
	column = strings.TrimSpace(column)
	if column == "" || value == "" {
		return e.ClearFilter(ctx)
	}
	filter := types.NewQueryFilter(column, value)
	if err := query.CheckFilter(e.desc, filter); err != nil {
		return nil, err
	}
	next := e.state.Clone()
	next.Filter = filter
	next.PageIndex = 0
	return e.resolveAndLoad(ctx, next)
}

// ClearFilter drops the filter and loads page 0.
func (e *Engine) ClearFilter(ctx context.Context) (*types.Page, error) {
	if err := e.requireOpen("clear filter"); err != nil {
		return nil, err
	}
	next := e.state.Clone()
	next.Filter = nil
	next.PageIndex = 0
	return e.resolveAndLoad(ctx, next)
}

// GoToPage moves delta pages, saturating at the first and last page. When
// the target equals the current page nothing is queried and the current
// page is returned.
func (e *Engine) GoToPage(ctx context.Context, delta int) (*types.Page, error) {
	if err := e.requireOpen("go to page"); err != nil {
		return nil, err
	}
	target := e.state.Target(delta)
	if target == e.state.PageIndex && e.page != nil {
		return e.page, nil
	}
	next := e.state.Clone()
	next.PageIndex = target
	return e.resolveAndLoad(ctx, next)
}

// Reload loads the current page again. The cursor is only updated when
// both statements succeed.
func (e *Engine) Reload(ctx context.Context) (*types.Page, error) {
	if err := e.requireOpen("reload"); err != nil {
		return nil, err
	}
	return e.resolveAndLoad(ctx, e.state.Clone())
}

func (e *Engine) resolveAndLoad(ctx context.Context, st *types.PageState) (*types.Page, error) {
	desc, err := e.resolver.ResolveTable(ctx, st.Table)
	if err != nil {
		return nil, err
	}
	return e.load(ctx, desc, st)
}

func (e *Engine) load(ctx context.Context, desc *types.TableDescriptor, st *types.PageState) (*types.Page, error) {
	countStmt, err := e.builder.Count(desc, st.Filter)
	if err != nil {
		return nil, err
	}

	var page *types.Page
	err = e.gateway.WithConn(ctx, func(conn bun.IConn) error {
		total, err := database.Count(ctx, conn, countStmt)
		if err != nil {
			return database.WrapError(types.StatementFailed, "count "+desc.Name, err)
		}
		st.TotalRows = total
		st.Clamp()

		selectStmt, err := e.builder.Select(desc, st.Filter, st.PageIndex, st.GetPageSize())
		if err != nil {
			return err
		}
		rs, err := database.Query(ctx, conn, selectStmt)
		if err != nil {
			return database.WrapError(types.StatementFailed, "select "+desc.Name, err)
		}
		page = &types.Page{
			ResultSet:  rs,
			Table:      desc.Name,
			PageIndex:  st.PageIndex,
			TotalPages: st.TotalPages(),
			TotalRows:  total,
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Reload failed", "table", desc.Name, "error", err)
		return nil, err
	}

	e.desc, e.state, e.page = desc, st, page
	e.logger.Debug("Page loaded", "table", desc.Name, "page", st.PageIndex, "pages", page.TotalPages, "rows", page.Len())
	return page, nil
}

func (e *Engine) requireOpen(op string) error {
	if e.state == nil || e.desc == nil {
		return types.Errorf(types.ValidationError, op, "no table is open")
	}
	return nil
}
