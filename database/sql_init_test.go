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

package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSQL(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSplitSQLStatements(t *testing.T) {
	script := `-- accounts
CREATE TABLE users (
    login varchar(64) PRIMARY KEY
);

INSERT INTO users (login) VALUES ('admin');
SELECT 1`
	stmts := splitSQLStatements(script)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE users ( login varchar(64) PRIMARY KEY );", stmts[0])
	assert.Equal(t, "INSERT INTO users (login) VALUES ('admin');", stmts[1])
	assert.Equal(t, "SELECT 1", stmts[2])
}

func TestGetSQLFilesOrder(t *testing.T) {
	root := t.TempDir()
	writeSQL(t, filepath.Join(root, "common"), "010_later.sql", "SELECT 1;")
	writeSQL(t, filepath.Join(root, "common"), "002_users.sql", "SELECT 1;")
	writeSQL(t, filepath.Join(root, "common"), "notes.txt", "ignored")
	writeSQL(t, filepath.Join(root, "environments", "demo"), "001_demo.sql", "SELECT 1;")

	s := NewSQLInitManager(nil, "demo", nil)
	s.SetSQLRootPath(root)
	files, err := s.GetSQLFiles()
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"002_users.sql", "010_later.sql", "001_demo.sql"}, names)
	assert.Equal(t, 999, parseFileOrder("users.sql"))
}

func TestExecuteInitialization(t *testing.T) {
	db, mock := newMockDB(t)
	root := t.TempDir()
	writeSQL(t, filepath.Join(root, "common"), "001_users.sql",
		"CREATE TABLE IF NOT EXISTS users (login varchar(64));\nINSERT INTO users (login) VALUES ('admin');\n")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (login) VALUES ('admin');")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewSQLInitManager(db, "", nil)
	s.SetSQLRootPath(root)
	results, err := s.ExecuteInitialization(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, int64(1), results[0].RowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteInitializationRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	root := t.TempDir()
	writeSQL(t, filepath.Join(root, "common"), "001_users.sql", "INSERT INTO users (login) VALUES ('admin');\n")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(errors.New("relation users does not exist"))
	mock.ExpectRollback()

	s := NewSQLInitManager(db, "", nil)
	s.SetSQLRootPath(root)
	results, err := s.ExecuteInitialization(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation users does not exist")
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}
