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
	"os"

	"github.com/spf13/cobra"
	"github.com/tomoncle/parkdesk"
	"github.com/tomoncle/parkdesk/config"
)

func newReportCommand(opts *options) *cobra.Command {
	var out exportFlags
	cmd := &cobra.Command{
		Use:   "report [ID|NAME [ARGS...]]",
		Short: "List or run the parking reports",
		Long: `Without arguments, list the reports and their parameters. Otherwise run the
report with the given id or name, passing ARGS as its parameters in order.`,
		Example: `  parkdesk report
  parkdesk report cars-on-floor 2 -u user -p user
  parkdesk report 2 2024-05-01 --out events.tsv -u user -p user`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := parkdesk.New(getConfig(cmd.Context())).Reports()
			if len(args) == 0 {
				renderReports(cmd.OutOrStdout(), reports.Reports())
				return nil
			}
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				rs, err := s.RunReport(ctx, args[0], args[1:]...)
				if err != nil {
					return err
				}
				if def, ok := reports.Lookup(args[0]); ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), def.Title)
				}
				renderResultSet(cmd.OutOrStdout(), rs)
				return out.write(cmd, s)
			})
		},
	}
	out.register(cmd.Flags())
	return cmd
}

func newBackupCommand(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Dump the database with the external dump tool",
		Long: `Dump the database to a file with pg_dump, mysqldump or sqlite3, depending on
the configured database type. The tool must be on PATH.`,
		Example: "  parkdesk backup --out parking.dump -u admin -p admin",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				out = getConfig(cmd.Context()).Backup.Output
			}
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				output, err := s.Backup(ctx, out)
				if output != "" {
					_, _ = fmt.Fprint(cmd.ErrOrStderr(), output)
				}
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Backup written to %s", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "dump file (default: backup.output of the config)")
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Run the seed SQL files, creating the users table",
		Long: `Run the SQL files under data_init.filepath/common, then the ones of the
data_init.environment directory, each in its own transaction. The shipped
files create the users table with the admin/admin and user/user accounts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *parkdesk.Console) error {
				results, err := c.InitData(ctx)
				for _, r := range results {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-12s %d rows\n", r.File, r.Duration, r.RowsAffected)
				}
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "%d seed files executed", len(results))
				return nil
			})
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the database connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			console := parkdesk.New(getConfig(ctx))
			defer func() { _ = console.Close() }()
			openErr := console.Open(ctx)
			health, stats := console.Status(ctx)
			renderStatus(cmd.OutOrStdout(), health, stats)
			return openErr
		},
	}
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [FILE]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "Configuration written to %s", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
