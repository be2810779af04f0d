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

// Package access decides which operations a role may run and checks
// credentials against the users table.
package access

import (
	"context"
	"strings"

	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/types"
)

// Authorize allows every operation for admin and only the read-only ones
// for user. Unknown roles and operations are denied.
func Authorize(role types.Role, op types.Operation) error {
	if !op.IsValid() {
		return types.Errorf(types.PermissionDenied, op.Name(), "unknown operation")
	}
	switch role {
	case types.RoleAdmin:
		return nil
	case types.RoleUser:
		if !op.Mutating() {
			return nil
		}
	}
	return types.Errorf(types.PermissionDenied, op.Name(), "operation %q is not allowed for role %q", op.Name(), role.Name())
}

// Allowed is Authorize as a boolean.
func Allowed(role types.Role, op types.Operation) bool {
	return Authorize(role, op) == nil
}

// Fetcher runs one query on its own connection.
type Fetcher interface {
	Fetch(ctx context.Context, stmt types.Statement) (*types.ResultSet, error)
}

// Authenticator checks logins against users(login, pass, role).
type Authenticator struct {
	fetcher Fetcher
	table   string
	logger  database.Logger
}

func NewAuthenticator(fetcher Fetcher, logger database.Logger) *Authenticator {
	if logger == nil {
		logger = database.NewLogger("ACCESS")
	}
	return &Authenticator{fetcher: fetcher, table: "users", logger: logger}
}

// Authenticate returns the role of login when password matches. Wrong
// credentials and unknown stored roles are PermissionDenied.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (types.Role, error) {
	const op = "login"
	login = strings.TrimSpace(login)
	if login == "" {
		return 0, types.Errorf(types.PermissionDenied, op, "login is empty")
	}
	stmt := types.NewStatement("SELECT role FROM "+a.table+" WHERE login = ? AND pass = ?", login, password)
	rs, err := a.fetcher.Fetch(ctx, stmt)
	if err != nil {
		return 0, database.WrapError(types.StatementFailed, op, err)
	}
	if rs.Len() == 0 {
		a.logger.Warn("Login rejected", "login", login)
		return 0, types.Errorf(types.PermissionDenied, op, "wrong login or password")
	}
	role, ok := types.ParseRole(types.FormatValue(rs.Rows[0][0]))
	if !ok {
		return 0, types.Errorf(types.PermissionDenied, op, "user %q has unknown role %q", login, types.FormatValue(rs.Rows[0][0]))
	}
	a.logger.Info("Login accepted", "login", login, "role", role.Name())
	return role, nil
}
