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

package catalog

import (
	"sort"
	"strings"

	"github.com/tomoncle/parkdesk/types"
)

// KeyPolicies is the fixed set of tables whose primary key is supplied by
// the caller. Every other table gets its key from the store.
type KeyPolicies struct {
	manual map[string]struct{}
}

// NewKeyPolicies returns a set marking tables as manual-key. Names are
// compared case-insensitively.
func NewKeyPolicies(tables ...string) *KeyPolicies {
	k := &KeyPolicies{manual: make(map[string]struct{}, len(tables))}
	for _, t := range tables {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			k.manual[t] = struct{}{}
		}
	}
	return k
}

// Policy returns the key policy of table.
func (k *KeyPolicies) Policy(table string) types.PrimaryKeyPolicy {
	if k == nil {
		return types.PrimaryKeyPolicy{}
	}
	_, ok := k.manual[strings.ToLower(table)]
	return types.PrimaryKeyPolicy{ManualKey: ok}
}

// Tables returns the manual-key tables, sorted.
func (k *KeyPolicies) Tables() []string {
	out := make([]string, 0, len(k.manual))
	for t := range k.manual {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
