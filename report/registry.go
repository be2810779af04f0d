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

// Package report holds the fixed read-only reports of the console and
// binds their parameters.
package report

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomoncle/parkdesk/types"
)

type ParamKind int

const (
	ParamInt ParamKind = iota + 1
	ParamDate
)

func (k ParamKind) String() string {
	switch k {
	case ParamInt:
		return "integer"
	case ParamDate:
		return "date (YYYY-MM-DD)"
	default:
		return "unknown"
	}
}

// Param is one positional parameter of a report.
type Param struct {
	Name string
	Kind ParamKind
}

// Definition is a named parametrized query.
type Definition struct {
	ID       string
	Name     string
	Title    string
	Params   []Param
	Query    string
	Priority int
}

// Bind checks args against the parameters and returns the statement to
// run. Wrong arity or a malformed value is a ValidationError.
func (d *Definition) Bind(args ...string) (types.Statement, error) {
	op := "report " + d.Name
	if len(args) != len(d.Params) {
		return types.Statement{}, types.Errorf(types.ValidationError, op,
			"expected %d parameter(s), got %d", len(d.Params), len(args))
	}
	bound := make([]interface{}, len(args))
	for i, p := range d.Params {
		raw := strings.TrimSpace(args[i])
		switch p.Kind {
		case ParamInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return types.Statement{}, types.Errorf(types.ValidationError, op, "%s must be an integer, got %q", p.Name, raw)
			}
			bound[i] = n
		case ParamDate:
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return types.Statement{}, types.Errorf(types.ValidationError, op, "%s must be a date YYYY-MM-DD, got %q", p.Name, raw)
			}
			bound[i] = t.Format("2006-01-02")
		default:
			return types.Statement{}, types.Errorf(types.ValidationError, op, "parameter %s has no kind", p.Name)
		}
	}
	return types.NewStatement(d.Query, bound...), nil
}

// Registry stores reports and lists them in priority order.
type Registry interface {
	Register(def *Definition) error
	Lookup(key string) (*Definition, bool)
	Reports() []*Definition
}

type registry struct {
	reports []*Definition
	mutex   sync.RWMutex
}

func NewRegistry() Registry {
	return &registry{reports: make([]*Definition, 0)}
}

// Register adds def. IDs and names must be unique.
func (r *registry) Register(def *Definition) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, d := range r.reports {
		if d.ID == def.ID || d.Name == def.Name {
			return types.Errorf(types.ValidationError, "register report", "report %q is already registered", def.Name)
		}
	}
	r.reports = append(r.reports, def)
	return nil
}

// Lookup finds a report by ID or name.
func (r *registry) Lookup(key string) (*Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	key = strings.ToLower(strings.TrimSpace(key))
	for _, d := range r.reports {
		if d.ID == key || d.Name == key {
			return d, true
		}
	}
	return nil, false
}

func (r *registry) Reports() []*Definition {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Definition, len(r.reports))
	copy(result, r.reports)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority < result[j].Priority
	})
	return result
}
