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

package pager

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type staticResolver map[string]*types.TableDescriptor

func (s staticResolver) ResolveTable(_ context.Context, name string) (*types.TableDescriptor, error) {
	if d, ok := s[name]; ok {
		return d, nil
	}
	return nil, types.Errorf(types.NotFound, "resolve "+name, "table %q does not exist or has no columns", name)
}

var place = &types.TableDescriptor{
	Name:       "parking_place",
	Columns:    []string{"p_number", "floor"},
	PrimaryKey: "p_number",
}

func newEngine(t *testing.T, pageSize int) (*Engine, sqlmock.Sqlmock, *bun.DB) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	e := NewEngine(database.NewGateway(db, nil), staticResolver{"parking_place": place}, pageSize, nil)
	return e, mock, db
}

func placeRows(from, n int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"p_number", "floor"})
	for i := from; i < from+n; i++ {
		rows.AddRow(i, 1+i/5)
	}
	return rows
}

func expectPage(mock sqlmock.Sqlmock, total, offset, rows int) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(total))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "parking_place" ORDER BY "p_number" LIMIT `)).
		WillReturnRows(placeRows(offset, rows))
}

func TestBrowseTable(t *testing.T) {
	e, mock, db := newEngine(t, 5)
	ctx := context.Background()

	st, err := e.OpenTable(ctx, "parking_place")
	require.NoError(t, err)
	assert.Equal(t, 0, st.PageIndex)
	assert.Nil(t, st.Filter)

	expectPage(mock, 10, 0, 5)
	page, err := e.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, page.PageIndex)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 5, page.Len())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "parking_place" ORDER BY "p_number" LIMIT 5 OFFSET 5`)).
		WillReturnRows(placeRows(5, 5))
	page, err = e.GoToPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageIndex)
	assert.Equal(t, 5, page.Len())

	page, err = e.GoToPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageIndex)
	assert.Equal(t, 1, e.State().PageIndex)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestGoToPageBeforeFirstIsNoop(t *testing.T) {
	e, mock, _ := newEngine(t, 5)
	ctx := context.Background()
	_, err := e.OpenTable(ctx, "parking_place")
	require.NoError(t, err)

	expectPage(mock, 10, 0, 5)
	first, err := e.Reload(ctx)
	require.NoError(t, err)
	before := e.State()

	page, err := e.GoToPage(ctx, -1)
	require.NoError(t, err)
	assert.Same(t, first, page)
	assert.Equal(t, before, e.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReloadClampsAfterShrink(t *testing.T) {
	e, mock, _ := newEngine(t, 20)
	ctx := context.Background()
	_, err := e.OpenTable(ctx, "parking_place")
	require.NoError(t, err)

	expectPage(mock, 21, 0, 20)
	_, err = e.Reload(ctx)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT 20 OFFSET 20`)).WillReturnRows(placeRows(20, 1))
	page, err := e.GoToPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageIndex)
	assert.Equal(t, 2, page.TotalPages)

	// one row deleted elsewhere
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(20))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT 20 OFFSET 0`)).WillReturnRows(placeRows(0, 20))
	page, err = e.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, page.TotalRows)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 0, page.PageIndex)
	assert.Equal(t, 0, e.State().PageIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmptyTableHasOnePage(t *testing.T) {
	e, mock, _ := newEngine(t, 20)
	ctx := context.Background()
	_, err := e.OpenTable(ctx, "parking_place")
	require.NoError(t, err)

	expectPage(mock, 0, 0, 0)
	page, err := e.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 0, page.PageIndex)
	assert.Equal(t, 0, page.Len())
}

func TestSetFilter(t *testing.T) {
	e, mock, _ := newEngine(t, 20)
	ctx := context.Background()
	_, err := e.OpenTable(ctx, "parking_place")
	require.NoError(t, err)

	_, err = e.SetFilter(ctx, "nonexistent", "1")
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
	assert.Nil(t, e.State().Filter)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place" WHERE "floor" ILIKE '%2%'`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "parking_place" WHERE "floor" ILIKE '%2%' ORDER BY "p_number" LIMIT 20 OFFSET 0`)).
		WillReturnRows(placeRows(5, 1))
	page, err := e.SetFilter(ctx, "floor", "2")
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalRows)
	assert.Equal(t, types.NewQueryFilter("floor", "2"), e.State().Filter)

	expectPage(mock, 10, 0, 10)
	page, err = e.SetFilter(ctx, "floor", "")
	require.NoError(t, err)
	assert.Equal(t, 10, page.TotalRows)
	assert.Nil(t, e.State().Filter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetFilterFailureKeepsCursor(t *testing.T) {
	e, mock, db := newEngine(t, 5)
	ctx := context.Background()
	_, err := e.OpenTable(ctx, "parking_place")
	require.NoError(t, err)

	expectPage(mock, 10, 0, 5)
	_, err = e.Reload(ctx)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`OFFSET 5`)).WillReturnRows(placeRows(5, 5))
	_, err = e.GoToPage(ctx, 1)
	require.NoError(t, err)
	before := e.State()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place" WHERE "floor" ILIKE '%2%'`)).
		WillReturnError(errors.New("server closed the connection unexpectedly"))
	_, err = e.SetFilter(ctx, "floor", "2")
	assert.ErrorIs(t, err, types.ErrStatementFailed)

	assert.Equal(t, before, e.State())
	assert.Nil(t, e.State().Filter)
	assert.Equal(t, 1, e.State().PageIndex)
	assert.Equal(t, 1, e.Current().PageIndex)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place"`)).
		WillReturnError(errors.New("server closed the connection unexpectedly"))
	_, err = e.ClearFilter(ctx)
	assert.ErrorIs(t, err, types.ErrStatementFailed)
	assert.Equal(t, before, e.State())

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestReloadFailureKeepsState(t *testing.T) {
	e, mock, db := newEngine(t, 5)
	ctx := context.Background()
	_, err := e.OpenTable(ctx, "parking_place")
	require.NoError(t, err)

	expectPage(mock, 10, 0, 5)
	_, err = e.Reload(ctx)
	require.NoError(t, err)
	before := e.State()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "parking_place"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`OFFSET 5`)).WillReturnError(errors.New("canceling statement due to user request"))
	_, err = e.GoToPage(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStatementFailed)
	assert.Contains(t, err.Error(), "canceling statement")

	assert.Equal(t, before, e.State())
	assert.Equal(t, 5, e.Current().Len())
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestOperationsRequireOpenTable(t *testing.T) {
	e, _, _ := newEngine(t, 5)
	ctx := context.Background()

	_, err := e.Reload(ctx)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = e.GoToPage(ctx, 1)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = e.SetFilter(ctx, "floor", "1")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = e.ClearFilter(ctx)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = e.OpenTable(ctx, "ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Nil(t, e.State())
}

func TestShowKeepsPreviousTableOnFailure(t *testing.T) {
	e, mock, _ := newEngine(t, 5)
	ctx := context.Background()

	expectPage(mock, 3, 0, 3)
	page, err := e.Show(ctx, "parking_place")
	require.NoError(t, err)
	assert.Equal(t, 3, page.Len())

	_, err = e.Show(ctx, "ghost")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, "parking_place", e.State().Table)
	assert.Same(t, page, e.Current())
	assert.NoError(t, mock.ExpectationsWereMet())
}
