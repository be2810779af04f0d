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
	"github.com/tomoncle/parkdesk/access"
	"github.com/tomoncle/parkdesk/types"
)

// openForEdit checks the role first so a denied edit does no I/O, then
// opens table.
func openForEdit(ctx context.Context, s *parkdesk.Session, op types.Operation, table string) error {
	if err := access.Authorize(s.Role(), op); err != nil {
		return err
	}
	_, err := s.OpenTable(ctx, table)
	return err
}

func printWrite(cmd *cobra.Command, s *parkdesk.Session, verb string, res *parkdesk.Result) {
	printOK(cmd.OutOrStdout(), "%d row(s) %s", res.RowsAffected, verb)
	renderPage(cmd.OutOrStdout(), res.Page, s.State().Filter)
}

func newAddCommand(opts *options) *cobra.Command {
	var values assignments
	cmd := &cobra.Command{
		Use:   "add TABLE --set column=value...",
		Short: "Add a row to a table",
		Long: `Add a row to a table. Columns left out or set to an empty value are stored
as NULL. The key column can be set only on tables whose keys are entered by
hand; elsewhere the database generates it.`,
		Example: `  parkdesk add car --set c_number=A123BC --set mark=Lada -u admin -p admin
  parkdesk add employee --set name=Ann --set post=guard -u admin -p admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				if err := openForEdit(ctx, s, types.OpAdd, args[0]); err != nil {
					return err
				}
				form, err := s.BeginAdd(ctx)
				if err != nil {
					return err
				}
				if err := form.SetAll(values.draft); err != nil {
					return err
				}
				res, err := s.Commit(ctx, form)
				if err != nil {
					return err
				}
				printWrite(cmd, s, "added", res)
				return nil
			})
		},
	}
	cmd.Flags().Var(&values, "set", "column value, repeatable")
	return cmd
}

func newUpdateCommand(opts *options) *cobra.Command {
	var values assignments
	cmd := &cobra.Command{
		Use:   "update TABLE KEY --set column=value...",
		Short: "Update the row of a table with the given key",
		Long: `Update the row of a table with the given key. Columns not given keep their
current value; the key itself cannot be changed.`,
		Example: "  parkdesk update car A123BC --set model=Vesta -u admin -p admin",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				if err := openForEdit(ctx, s, types.OpUpdate, args[0]); err != nil {
					return err
				}
				form, err := s.BeginUpdate(ctx, args[1])
				if err != nil {
					return err
				}
				if err := form.SetAll(values.draft); err != nil {
					return err
				}
				res, err := s.Commit(ctx, form)
				if err != nil {
					return err
				}
				printWrite(cmd, s, "updated", res)
				return nil
			})
		},
	}
	cmd.Flags().Var(&values, "set", "column value, repeatable")
	return cmd
}

func newDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete TABLE KEY",
		Short:   "Delete the row of a table with the given key",
		Example: "  parkdesk delete car A123BC -u admin -p admin",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *parkdesk.Session) error {
				if err := openForEdit(ctx, s, types.OpDelete, args[0]); err != nil {
					return err
				}
				res, err := s.Delete(ctx, args[1])
				if err != nil {
					return err
				}
				printWrite(cmd, s, "deleted", res)
				return nil
			})
		},
	}
}
