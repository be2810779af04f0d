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

// Package cli is the command line front end of the parking console. Every
// command opens its own connection, logs in and runs one operation.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tomoncle/parkdesk/config"
	"github.com/tomoncle/parkdesk/types"
	"github.com/tomoncle/parkdesk/utils"
)

// Version is set at build time.
var Version = "0.1.0"

type configKey struct{}

// options holds the persistent flags of one root command.
type options struct {
	configPath string
	login      string
	password   string
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "parkdesk",
		Short: "Parking database record console",
		Long: `parkdesk browses, filters and edits the tables of a parking database,
runs the fixed parking reports, exports results and dumps the database.

Read commands are open to every account; add, update, delete and backup
need the admin role.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.ConfigureLogging(); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: "+config.DefaultPath+")")
	flags.StringVarP(&opts.login, "login", "u", utils.EnvDefaultString("PARKDESK_LOGIN", ""), "login name (env PARKDESK_LOGIN)")
	flags.StringVarP(&opts.password, "password", "p", utils.EnvDefaultString("PARKDESK_PASSWORD", ""), "password (env PARKDESK_PASSWORD)")

	rootCmd.AddCommand(
		newTablesCommand(opts),
		newDescribeCommand(opts),
		newShowCommand(opts),
		newGetCommand(opts),
		newAddCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
		newReportCommand(opts),
		newBackupCommand(opts),
		newInitCommand(),
		newStatusCommand(),
		newConfigCommand(),
	)
	return rootCmd
}

// Execute runs the root command and prints a failure to stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Default()
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	var e *types.Error
	if errors.As(err, &e) {
		_, _ = red.Fprintf(w, "Error [%s]: ", e.Kind)
		_, _ = fmt.Fprintln(w, describeError(e))
		return
	}
	_, _ = red.Fprint(w, "Error: ")
	_, _ = fmt.Fprintln(w, err)
}

// describeError renders e without its kind prefix, keeping the driver text.
func describeError(e *types.Error) string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func printOK(w io.Writer, format string, args ...interface{}) {
	_, _ = color.New(color.FgGreen).Fprintf(w, format+"\n", args...)
}
