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

package editor

import (
	"context"

	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/query"
	"github.com/tomoncle/parkdesk/types"
	"github.com/uptrace/bun/dialect"
)

// Executor runs one write statement on its own connection.
type Executor interface {
	Execute(ctx context.Context, stmt types.Statement) (int64, error)
	Dialect() dialect.Name
}

// Committer turns forms and deletes into statements and runs them.
type Committer struct {
	exec    Executor
	builder *query.Builder
	logger  database.Logger
}

func NewCommitter(exec Executor, logger database.Logger) *Committer {
	if logger == nil {
		logger = database.NewLogger("EDITOR")
	}
	return &Committer{exec: exec, builder: query.NewBuilder(exec.Dialect()), logger: logger}
}

// Commit validates f and runs its insert or update. Validation failures
// are returned before any statement reaches the store. A rejected
// statement is StatementFailed and carries the store's message.
func (c *Committer) Commit(ctx context.Context, f *Form) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	var (
		stmt types.Statement
		err  error
	)
	switch f.Operation() {
	case types.OpAdd:
		stmt, err = c.builder.Insert(f.Table(), f.Policy(), f.Draft())
	case types.OpUpdate:
		stmt, err = c.builder.Update(f.Table(), f.Key(), f.Draft())
	default:
		return 0, types.Errorf(types.ValidationError, "commit", "unsupported operation %s", f.Operation())
	}
	if err != nil {
		return 0, err
	}
	return c.run(ctx, f.Operation().Name()+" "+f.Table().Name, stmt)
}

// Delete removes the row of desc whose key equals key.
func (c *Committer) Delete(ctx context.Context, desc *types.TableDescriptor, key string) (int64, error) {
	stmt, err := c.builder.Delete(desc, key)
	if err != nil {
		return 0, err
	}
	return c.run(ctx, "delete "+desc.Name, stmt)
}

func (c *Committer) run(ctx context.Context, op string, stmt types.Statement) (int64, error) {
	n, err := c.exec.Execute(ctx, stmt)
	if err != nil {
		err = database.WrapError(types.StatementFailed, op, err)
		c.logger.Warn("Statement rejected", "op", op, "error", err)
		return 0, err
	}
	c.logger.Info("Statement committed", "op", op, "rows", n)
	return n, nil
}
