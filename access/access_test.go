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

package access

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

func TestAuthorize(t *testing.T) {
	all := []types.Operation{
		types.OpView, types.OpBrowse, types.OpReport, types.OpExport,
		types.OpAdd, types.OpUpdate, types.OpDelete, types.OpBackup,
	}
	for _, op := range all {
		assert.NoError(t, Authorize(types.RoleAdmin, op), op.Name())

		err := Authorize(types.RoleUser, op)
		if op.Mutating() {
			assert.ErrorIs(t, err, types.ErrPermissionDenied, op.Name())
		} else {
			assert.NoError(t, err, op.Name())
		}
	}

	assert.ErrorIs(t, Authorize(types.RoleUser, types.OpDelete), types.ErrPermissionDenied)
	assert.NoError(t, Authorize(types.RoleAdmin, types.OpDelete))
	assert.False(t, Allowed(types.Role(0), types.OpView))
	assert.False(t, Allowed(types.RoleAdmin, types.Operation(42)))
}

func newAuthenticator(t *testing.T) (*Authenticator, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return NewAuthenticator(database.NewGateway(db, nil), nil), mock
}

const loginQuery = `SELECT role FROM users WHERE login = `

func TestAuthenticate(t *testing.T) {
	a, mock := newAuthenticator(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(loginQuery + `'admin' AND pass = 'admin'`)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	role, err := a.Authenticate(ctx, " admin ", "admin")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, role)

	mock.ExpectQuery(regexp.QuoteMeta(loginQuery + `'user' AND pass = 'oops'`)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}))
	_, err = a.Authenticate(ctx, "user", "oops")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)

	mock.ExpectQuery(regexp.QuoteMeta(loginQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow([]byte("root")))
	_, err = a.Authenticate(ctx, "old", "x")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)

	_, err = a.Authenticate(ctx, "", "x")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateStoreFailure(t *testing.T) {
	a, mock := newAuthenticator(t)
	mock.ExpectQuery(regexp.QuoteMeta(loginQuery)).
		WillReturnError(errors.New(`relation "users" does not exist`))

	_, err := a.Authenticate(context.Background(), "admin", "admin")
	assert.ErrorIs(t, err, types.ErrStatementFailed)
	assert.Contains(t, err.Error(), `relation "users" does not exist`)
}
