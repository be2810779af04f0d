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

	"github.com/spf13/cobra"
	"github.com/tomoncle/parkdesk"
)

func newTablesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				names, err := s.ListTables(ctx)
				if err != nil {
					return err
				}
				renderTables(cmd.OutOrStdout(), names, cfg.Console.Tables, cfg.Console.ManualKeyTables)
				return nil
			})
		},
	}
}

func newDescribeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "describe TABLE",
		Short:   "Show the columns and key of a table",
		Example: "  parkdesk describe car -u user -p user",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				info, err := s.Describe(ctx, args[0])
				if err != nil {
					return err
				}
				renderTableInfo(cmd.OutOrStdout(), info)
				return nil
			})
		},
	}
}

func newShowCommand(opts *options) *cobra.Command {
	var (
		filter filterFlag
		page   int
		out    exportFlags
	)
	cmd := &cobra.Command{
		Use:   "show [TABLE]",
		Short: "Show one page of a table",
		Long: `Show one page of a table, optionally filtered on a column containing a
value. Pages are numbered from 1; a page past the end shows the last page.
Without TABLE the configured start table is shown.`,
		Example: `  parkdesk show parking_place
  parkdesk show employee --filter post=guard --page 2
  parkdesk show car --out cars.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := getConfig(cmd.Context()).Console.StartTable
			if len(args) == 1 {
				name = args[0]
			}
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				p, err := s.OpenTable(ctx, name)
				if err != nil {
					return err
				}
				if filter.column != "" {
					if p, err = s.SetFilter(ctx, filter.column, filter.value); err != nil {
						return err
					}
				}
				if page > 1 {
					if p, err = s.GoToPage(ctx, page-1); err != nil {
						return err
					}
				}
				renderPage(cmd.OutOrStdout(), p, s.State().Filter)
				return out.write(cmd, s)
			})
		},
	}
	cmd.Flags().Var(&filter, "filter", "show rows whose column contains value")
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	out.register(cmd.Flags())
	return cmd
}

func newGetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get TABLE KEY",
		Short: "Show the row of a table with the given key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				if _, err := s.OpenTable(ctx, args[0]); err != nil {
					return err
				}
				rec, err := s.Get(ctx, args[1])
				if err != nil {
					return err
				}
				renderRecord(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
}
