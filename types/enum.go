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

package types

import "strings"

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

var (
	_ BaseEnum = Role(0)
	_ BaseEnum = Operation(0)
)

// Role is the access level stored in the users table.
type Role int

const (
	RoleAdmin Role = iota + 1
	RoleUser
)

var roleNames = map[Role][2]string{
	RoleAdmin: {"admin", "full access, including writes and backup"},
	RoleUser:  {"user", "read only: view, browse and reports"},
}

// ParseRole maps a stored role name to a Role.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, n := range roleNames {
		if n[0] == s {
			return r, true
		}
	}
	return Role(IllegalValue), false
}

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) Number() int {
	if !r.IsValid() {
		return IllegalValue
	}
	return int(r)
}

func (r Role) String() string { return r.Name() }

func (r Role) Name() string {
	if n, ok := roleNames[r]; ok {
		return n[0]
	}
	return IllegalName
}

func (r Role) Desc() string {
	if n, ok := roleNames[r]; ok {
		return n[1]
	}
	return IllegalDesc
}

// Operation names an action a session may attempt.
type Operation int

const (
	OpView Operation = iota + 1
	OpBrowse
	OpReport
	OpExport
	OpAdd
	OpUpdate
	OpDelete
	OpBackup
)

var operationNames = map[Operation][2]string{
	OpView:   {"view", "reload the current page"},
	OpBrowse: {"browse", "open tables, filter and page"},
	OpReport: {"report", "run a fixed report"},
	OpExport: {"export", "write the last result to a file"},
	OpAdd:    {"add", "insert a record"},
	OpUpdate: {"update", "modify a record"},
	OpDelete: {"delete", "remove a record"},
	OpBackup: {"backup", "dump the database"},
}

// Mutating reports whether the operation writes to the store or the host.
func (o Operation) Mutating() bool {
	switch o {
	case OpAdd, OpUpdate, OpDelete, OpBackup:
		return true
	}
	return false
}

func (o Operation) IsValid() bool {
	_, ok := operationNames[o]
	return ok
}

func (o Operation) Number() int {
	if !o.IsValid() {
		return IllegalValue
	}
	return int(o)
}

func (o Operation) String() string { return o.Name() }

func (o Operation) Name() string {
	if n, ok := operationNames[o]; ok {
		return n[0]
	}
	return IllegalName
}

func (o Operation) Desc() string {
	if n, ok := operationNames[o]; ok {
		return n[1]
	}
	return IllegalDesc
}
