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

// Package editor collects the field values of an add or update and commits
// them. Which columns a form accepts follows from the table's key policy:
// the primary key is editable only when adding to a manual-key table, and
// on update it is carried over from the original row.
package editor

import (
	"strings"

	"github.com/tomoncle/parkdesk/types"
)

// Field is one entry of a form as shown to the user.
type Field struct {
	Column   string
	Value    string
	Editable bool
	Required bool
}

// Form is the state of one add or update. It is discarded after commit or
// cancel.
type Form struct {
	op     types.Operation
	desc   *types.TableDescriptor
	policy types.PrimaryKeyPolicy
	key    string
	values types.RecordDraft
}

// BeginAdd opens an empty form for a new row of desc.
func BeginAdd(desc *types.TableDescriptor, policy types.PrimaryKeyPolicy) (*Form, error) {
	if err := checkDescriptor("begin add", desc); err != nil {
		return nil, err
	}
	return &Form{
		op:     types.OpAdd,
		desc:   desc,
		policy: policy,
		values: make(types.RecordDraft, len(desc.Columns)),
	}, nil
}

// BeginUpdate opens a form pre-filled with the values of existing. The
// key value is taken from existing and cannot be changed through the form.
func BeginUpdate(desc *types.TableDescriptor, policy types.PrimaryKeyPolicy, existing types.Record) (*Form, error) {
	const op = "begin update"
	if err := checkDescriptor(op, desc); err != nil {
		return nil, err
	}
	if !desc.HasPrimaryKey() {
		return nil, types.Errorf(types.NotFound, op, "table %q has no primary key", desc.Name)
	}
	if _, ok := existing.Get(desc.PrimaryKey); !ok {
		return nil, types.Errorf(types.ValidationError, op, "record has no value for key %q", desc.PrimaryKey)
	}
	key := existing.Text(desc.PrimaryKey)
	if strings.TrimSpace(key) == "" {
		return nil, types.Errorf(types.ValidationError, op, "record has a blank key %q", desc.PrimaryKey)
	}
	values := make(types.RecordDraft, len(desc.Columns))
	for _, c := range desc.Columns {
		values[c] = existing.Text(c)
	}
	return &Form{op: types.OpUpdate, desc: desc, policy: policy, key: key, values: values}, nil
}

// Operation is types.OpAdd or types.OpUpdate.
func (f *Form) Operation() types.Operation { return f.op }

func (f *Form) Table() *types.TableDescriptor { return f.desc }

func (f *Form) Policy() types.PrimaryKeyPolicy { return f.policy }

// Key returns the key of the row being updated, "" on add.
func (f *Form) Key() string { return f.key }

// IsEditable reports whether the form accepts a value for column.
func (f *Form) IsEditable(column string) bool {
	if !f.desc.HasColumn(column) {
		return false
	}
	if column != f.desc.PrimaryKey {
		return true
	}
	return f.op == types.OpAdd && f.policy.ManualKey
}

// Editable returns the editable columns in table order.
func (f *Form) Editable() []string {
	out := make([]string, 0, len(f.desc.Columns))
	for _, c := range f.desc.Columns {
		if f.IsEditable(c) {
			out = append(out, c)
		}
	}
	return out
}

// Fields returns every column with its current value. The key of an
// update is listed read-only; a server-generated key on add is omitted.
func (f *Form) Fields() []Field {
	out := make([]Field, 0, len(f.desc.Columns))
	for _, c := range f.desc.Columns {
		editable := f.IsEditable(c)
		if !editable && f.op == types.OpAdd {
			continue
		}
		out = append(out, Field{
			Column:   c,
			Value:    f.values[c],
			Editable: editable,
			Required: editable && c == f.desc.PrimaryKey,
		})
	}
	return out
}

// Set stores the value of an editable column. Surrounding blanks are
// trimmed; a blank value is stored as NULL.
func (f *Form) Set(column, value string) error {
	if !f.desc.HasColumn(column) {
		return types.Errorf(types.NotFound, "set field", "table %q has no column %q", f.desc.Name, column)
	}
	if !f.IsEditable(column) {
		return types.Errorf(types.ValidationError, "set field", "column %q is not editable", column)
	}
	f.values[column] = strings.TrimSpace(value)
	return nil
}

// SetAll stores every value of draft, stopping at the first rejected one.
func (f *Form) SetAll(draft types.RecordDraft) error {
	for _, c := range f.desc.Columns {
		if v, ok := draft[c]; ok {
			if err := f.Set(c, v); err != nil {
				return err
			}
		}
	}
	for c := range draft {
		if !f.desc.HasColumn(c) {
			return types.Errorf(types.NotFound, "set field", "table %q has no column %q", f.desc.Name, c)
		}
	}
	return nil
}

func (f *Form) Get(column string) string { return f.values[column] }

// Draft returns the values to commit. On update the original key is
// attached no matter what the form holds.
func (f *Form) Draft() types.RecordDraft {
	d := make(types.RecordDraft, len(f.desc.Columns))
	for _, c := range f.desc.Columns {
		d[c] = f.values[c]
	}
	if f.op == types.OpUpdate {
		d[f.desc.PrimaryKey] = f.key
	}
	return d
}

// Validate checks the form before any statement is built.
func (f *Form) Validate() error {
	if f.op == types.OpAdd && f.policy.ManualKey && f.desc.HasPrimaryKey() &&
		strings.TrimSpace(f.values[f.desc.PrimaryKey]) == "" {
		return types.Errorf(types.ValidationError, "commit", "field %q is the primary key and must be filled", f.desc.PrimaryKey)
	}
	return nil
}

func checkDescriptor(op string, desc *types.TableDescriptor) error {
	if desc == nil || len(desc.Columns) == 0 {
		return types.Errorf(types.NotFound, op, "table has no columns")
	}
	return nil
}
