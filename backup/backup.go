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

// Package backup produces a point-in-time dump of the database with the
// engine's own dump tool.
package backup

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/types"
)

// Runner starts name with args and extra environment and returns its
// combined output.
type Runner func(ctx context.Context, name string, args []string, env []string) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// Command is a resolved dump invocation.
type Command struct {
	Name string
	Args []string
	Env  []string
}

// Dumper runs the dump tool for one connection.
type Dumper struct {
	cfg    *database.ConnectionConfig
	tool   string
	run    Runner
	logger database.Logger
}

// NewDumper returns a dumper for cfg. An empty tool picks the default
// tool of the database type.
func NewDumper(cfg *database.ConnectionConfig, tool string, logger database.Logger) *Dumper {
	if logger == nil {
		logger = database.NewLogger("BACKUP")
	}
	return &Dumper{cfg: cfg, tool: tool, run: ExecRunner, logger: logger}
}

// WithRunner replaces the command runner.
func (d *Dumper) WithRunner(run Runner) *Dumper {
	d.run = run
	return d
}

// Command builds the invocation that dumps into out.
func (d *Dumper) Command(out string) (Command, error) {
	const op = "backup"
	if strings.TrimSpace(out) == "" {
		return Command{}, types.Errorf(types.ValidationError, op, "output path is empty")
	}
	c := d.cfg
	switch c.Type {
	case database.TypePostgres:
		return Command{
			Name: d.toolOr("pg_dump"),
			Args: []string{
				"-h", c.Host,
				"-p", strconv.Itoa(c.Port),
				"-U", c.Username,
				"-F", "c",
				"-b",
				"-v",
				"-f", out,
				c.DBName,
			},
			Env: []string{"PGPASSWORD=" + c.Password},
		}, nil
	case database.TypeMySQL:
		return Command{
			Name: d.toolOr("mysqldump"),
			Args: []string{
				"-h", c.Host,
				"-P", strconv.Itoa(c.Port),
				"-u", c.Username,
				"--single-transaction",
				"--result-file=" + out,
				c.DBName,
			},
			Env: []string{"MYSQL_PWD=" + c.Password},
		}, nil
	case database.TypeSQLite:
		return Command{
			Name: d.toolOr("sqlite3"),
			Args: []string{c.SQLitePath(), ".backup '" + strings.ReplaceAll(out, "'", "''") + "'"},
		}, nil
	}
	return Command{}, types.Errorf(types.BackupFailed, op, "no dump tool for database type %q", c.Type)
}

// Dump writes a dump to out and returns the tool's output. A missing tool
// or a non-zero exit is BackupFailed carrying that output.
func (d *Dumper) Dump(ctx context.Context, out string) (string, error) {
	const op = "backup"
	cmd, err := d.Command(out)
	if err != nil {
		return "", err
	}
	d.logger.Info("Starting dump", "tool", cmd.Name, "out", out)
	output, err := d.run(ctx, cmd.Name, cmd.Args, cmd.Env)
	text := strings.TrimSpace(string(output))
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return text, types.Wrap(types.BackupFailed, op, err).
				WithHint(cmd.Name + " not found, make sure it is on PATH")
		}
		e := types.Wrap(types.BackupFailed, op, err)
		if text != "" {
			e.Message = err.Error() + "\n" + text
		}
		d.logger.Error("Dump failed", "tool", cmd.Name, "error", err)
		return text, e
	}
	d.logger.Info("Dump finished", "out", out)
	return text, nil
}

func (d *Dumper) toolOr(def string) string {
	if d.tool != "" {
		return d.tool
	}
	return def
}
