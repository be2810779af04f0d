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
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/parkdesk/backup"
	"github.com/tomoncle/parkdesk/config"
	"github.com/tomoncle/parkdesk/export"
	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newConsole(t *testing.T) (*Console, sqlmock.Sqlmock, *bun.DB) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	c := New(config.Default())
	c.Attach(db)
	return c, mock, db
}

func expectColumns(mock sqlmock.Sqlmock, table string, cols ...string) {
	rows := sqlmock.NewRows([]string{"column_name"})
	for _, c := range cols {
		rows.AddRow(c)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM information_schema.columns WHERE table_schema = 'public' AND table_name = '` + table + `'`)).
		WillReturnRows(rows)
}

func expectCount(mock sqlmock.Sqlmock, table string, n int) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "` + table + `"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func placeRows(from, n int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"p_number", "floor"})
	for i := from; i < from+n; i++ {
		rows.AddRow(i+1, 1)
	}
	return rows
}

func TestUserSessionIsReadOnly(t *testing.T) {
	c, mock, _ := newConsole(t)
	s := c.NewSession("user", types.RoleUser)
	ctx := context.Background()

	_, err := s.Delete(ctx, "1")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	_, err = s.BeginAdd(ctx)
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	_, err = s.BeginUpdate(ctx, "1")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	_, err = s.Backup(ctx, "/tmp/parking.dump")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)

	assert.True(t, s.Can(types.OpReport))
	assert.False(t, s.Can(types.OpDelete))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReloadsAndClamps(t *testing.T) {
	c, mock, db := newConsole(t)
	s := c.NewSession("admin", types.RoleAdmin)
	ctx := context.Background()

	expectColumns(mock, "parking_place", "p_number", "floor")
	expectCount(mock, "parking_place", 21)
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT 20 OFFSET 0`)).WillReturnRows(placeRows(0, 20))
	page, err := s.OpenTable(ctx, "Parking_Place")
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)

	expectColumns(mock, "parking_place", "p_number", "floor")
	expectCount(mock, "parking_place", 21)
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT 20 OFFSET 20`)).WillReturnRows(placeRows(20, 1))
	page, err = s.GoToPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageIndex)

	expectColumns(mock, "parking_place", "p_number", "floor")
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "parking_place" WHERE "p_number" = '21'`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectColumns(mock, "parking_place", "p_number", "floor")
	expectCount(mock, "parking_place", 20)
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT 20 OFFSET 0`)).WillReturnRows(placeRows(0, 20))

	res, err := s.Delete(ctx, "21")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)
	assert.Equal(t, 0, res.Page.PageIndex)
	assert.Equal(t, 1, res.Page.TotalPages)
	assert.Equal(t, 20, res.Page.TotalRows)
	assert.Equal(t, 0, s.State().PageIndex)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, db.Stats().InUse)
}

func openCars(t *testing.T, s *Session, mock sqlmock.Sqlmock) {
	t.Helper()
	expectColumns(mock, "car", "c_number", "mark", "model", "driver_name")
	expectCount(mock, "car", 1)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "car" ORDER BY "c_number"`)).
		WillReturnRows(sqlmock.NewRows([]string{"c_number", "mark", "model", "driver_name"}).
			AddRow("A123BC", "Lada", "Vesta", "Ann"))
	_, err := s.OpenTable(context.Background(), "car")
	require.NoError(t, err)
}

func TestAddWithBlankManualKey(t *testing.T) {
	c, mock, _ := newConsole(t)
	s := c.NewSession("admin", types.RoleAdmin)
	ctx := context.Background()
	openCars(t, s, mock)
	before := s.State()

	expectColumns(mock, "car", "c_number", "mark", "model", "driver_name")
	form, err := s.BeginAdd(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c_number", "mark", "model", "driver_name"}, form.Editable())
	require.NoError(t, form.Set("mark", "Kia"))

	_, err = s.Commit(ctx, form)
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, before, s.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectedUpdateKeepsState(t *testing.T) {
	c, mock, _ := newConsole(t)
	s := c.NewSession("admin", types.RoleAdmin)
	ctx := context.Background()
	openCars(t, s, mock)
	before := s.State()
	page := s.Page()

	expectColumns(mock, "car", "c_number", "mark", "model", "driver_name")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "car" WHERE "c_number" = 'A123BC'`)).
		WillReturnRows(sqlmock.NewRows([]string{"c_number", "mark", "model", "driver_name"}).
			AddRow("A123BC", "Lada", "Vesta", "Ann"))
	form, err := s.BeginUpdate(ctx, "A123BC")
	require.NoError(t, err)
	assert.Equal(t, "A123BC", form.Key())
	require.NoError(t, form.Set("driver_name", "Nobody"))

	fkErr := &pq.Error{Code: "23503", Message: `insert or update on table "car" violates foreign key constraint "car_driver_name_fkey"`}
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "car" SET`)).WillReturnError(fkErr)

	_, err = s.Commit(ctx, form)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStatementFailed)
	assert.Contains(t, err.Error(), "violates foreign key constraint")
	assert.Equal(t, before, s.State())
	assert.Same(t, page, s.Page())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterValidation(t *testing.T) {
	c, mock, _ := newConsole(t)
	s := c.NewSession("user", types.RoleUser)
	openCars(t, s, mock)

	_, err := s.SetFilter(context.Background(), "nonexistent", "x")
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
	assert.Nil(t, s.State().Filter)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAndExport(t *testing.T) {
	c, mock, _ := newConsole(t)
	s := c.NewSession("user", types.RoleUser)

	assert.ErrorIs(t, s.Export(filepath.Join(t.TempDir(), "none.txt"), export.FormatTSV), types.ErrValidation)

	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY p.floor`)).
		WillReturnRows(sqlmock.NewRows([]string{"floor", "occupied"}).AddRow(1, 4).AddRow(2, 0))
	rs, err := s.RunReport(context.Background(), "occupancy")
	require.NoError(t, err)
	assert.Same(t, rs, s.LastResult())

	path := filepath.Join(t.TempDir(), "occupancy.txt")
	require.NoError(t, s.Export(path, export.FormatFor(path)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "floor\toccupied\n1\t4\n2\t0\n", string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	c, mock, _ := newConsole(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT role FROM users WHERE login = 'admin' AND pass = 'admin'`)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	s, err := c.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, s.Role())
	assert.Equal(t, "admin", s.Login())

	_, err = New(nil).Login(context.Background(), "admin", "admin")
	assert.ErrorIs(t, err, types.ErrConnectionUnavailable)
}

func TestBackup(t *testing.T) {
	c, _, _ := newConsole(t)
	s := c.NewSession("admin", types.RoleAdmin)

	var args []string
	s.WithDumper(backup.NewDumper(&c.Config().Database, "", nil).WithRunner(
		func(_ context.Context, name string, a []string, _ []string) ([]byte, error) {
			args = append([]string{name}, a...)
			return []byte("pg_dump: error: connection refused"), errors.New("exit status 1")
		}))

	_, err := s.Backup(context.Background(), "/tmp/parking.dump")
	assert.ErrorIs(t, err, types.ErrBackupFailed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "pg_dump -h 127.0.0.1 -p 5432 -U postgres -F c -b -v -f /tmp/parking.dump parking_lab2", strings.Join(args, " "))
}
