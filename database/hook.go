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
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var (
	traceTagColor = color.New(color.FgCyan)
	traceErrColor = color.New(color.BgRed, color.FgWhite)
	otherOpColor  = color.New(color.FgRed)
)

// installHooks attaches the SQL trace, bundebug and slow query hooks that
// the configuration asks for.
func installHooks(db *bun.DB, cfg *ConnectionConfig, logger Logger) {
	if cfg.EnableQueryLog {
		db.AddQueryHook(NewQueryHook(os.Stderr))
	}
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.FromEnv("BUNDEBUG")))
	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{slowTime: cfg.SlowQueryTime, logger: logger})
	}
}

// QueryHook prints every executed statement, colored by operation, with its
// duration and error.
type QueryHook struct {
	writer io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns a trace hook writing to w.
func NewQueryHook(w io.Writer) *QueryHook {
	return &QueryHook{writer: w}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	now := time.Now()
	dur := now.Sub(event.StartTime).Round(time.Microsecond)

	c, ok := operationColors[event.Operation()]
	if !ok {
		c = otherOpColor
	}
	line := fmt.Sprintf("%s %s %12s  %s",
		now.Format("2006-01-02 15:04:05.000"),
		traceTagColor.Sprint("[SQL]"),
		dur,
		c.Sprint(event.Query),
	)
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		line += "\t" + traceErrColor.Sprintf(" %T: %v ", event.Err, event.Err)
	}
	_, _ = fmt.Fprintln(h.writer, line)
}

type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
}

var _ bun.QueryHook = (*slowQueryHook)(nil)

func (h *slowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil {
		return
	}
	duration := time.Since(event.StartTime)
	if duration > h.slowTime {
		h.logger.Warn("Slow query detected",
			"duration", duration,
			"slow_threshold", h.slowTime,
			"query", event.Query,
		)
	}
}
