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

package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tomoncle/parkdesk"
	"github.com/tomoncle/parkdesk/export"
	"github.com/tomoncle/parkdesk/types"
)

// assignments collects repeated --set column=value flags.
type assignments struct {
	draft types.RecordDraft
}

var (
	_ pflag.Value = (*assignments)(nil)
	_ pflag.Value = (*filterFlag)(nil)
)

func (a *assignments) String() string {
	if len(a.draft) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(a.draft))
	for c, v := range a.draft {
		pairs = append(pairs, c+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (a *assignments) Set(s string) error {
	col, val, err := splitAssignment(s)
	if err != nil {
		return err
	}
	if a.draft == nil {
		a.draft = make(types.RecordDraft)
	}
	a.draft[col] = val
	return nil
}

func (a *assignments) Type() string { return "column=value" }

// filterFlag is the --filter column=value flag of show.
type filterFlag struct {
	column string
	value  string
}

func (f *filterFlag) String() string {
	if f.column == "" {
		return ""
	}
	return f.column + "=" + f.value
}

func (f *filterFlag) Set(s string) error {
	col, val, err := splitAssignment(s)
	if err != nil {
		return err
	}
	f.column, f.value = col, val
	return nil
}

func (f *filterFlag) Type() string { return "column=value" }

func splitAssignment(s string) (string, string, error) {
	col, val, ok := strings.Cut(s, "=")
	col = strings.ToLower(strings.TrimSpace(col))
	if !ok || col == "" {
		return "", "", fmt.Errorf("expected column=value, got %q", s)
	}
	return col, val, nil
}

// exportFlags are the --out and --format flags of commands that produce a
// result set.
type exportFlags struct {
	out    string
	format string
}

func (e *exportFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&e.out, "out", "o", "", "write the result to this file")
	fs.StringVar(&e.format, "format", "", "export format: tsv, json or yaml (default: from the file extension)")
}

// write exports the last result of s when --out was given.
func (e *exportFlags) write(cmd *cobra.Command, s *parkdesk.Session) error {
	if e.out == "" {
		return nil
	}
	format := export.FormatFor(e.out)
	if e.format != "" {
		f, err := export.ParseFormat(e.format)
		if err != nil {
			return err
		}
		format = f
	}
	if err := s.Export(e.out, format); err != nil {
		return err
	}
	printOK(cmd.OutOrStdout(), "Exported %d rows to %s (%s)", s.LastResult().Len(), e.out, format)
	return nil
}

// withConsole opens a console with the configuration of cmd and closes it
// when fn returns.
func withConsole(cmd *cobra.Command, fn func(ctx context.Context, c *parkdesk.Console) error) error {
	ctx := cmd.Context()
	console := parkdesk.New(getConfig(ctx))
	defer func() { _ = console.Close() }()
	if err := console.Open(ctx); err != nil {
		return err
	}
	return fn(ctx, console)
}

// withSession logs in on a fresh console and runs fn in the session.
func withSession(cmd *cobra.Command, opts *options, fn func(ctx context.Context, s *parkdesk.Session) error) error {
	if opts.login == "" {
		return types.Errorf(types.PermissionDenied, "login", "no login given, use --login or PARKDESK_LOGIN")
	}
	return withConsole(cmd, func(ctx context.Context, c *parkdesk.Console) error {
		s, err := c.Login(ctx, opts.login, opts.password)
		if err != nil {
			return err
		}
		return fn(ctx, s)
	})
}
