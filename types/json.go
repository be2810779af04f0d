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

import "time"

// JsonObject is one record keyed by column name.
type JsonObject map[string]interface{}

// JsonArray is a list of records.
type JsonArray []JsonObject

// Object converts the record into a JsonObject. Byte slices become strings
// and times keep their display form.
func (r Record) Object() JsonObject {
	obj := make(JsonObject, len(r.columns))
	for i, c := range r.columns {
		obj[c] = jsonValue(r.values[i])
	}
	return obj
}

// Objects converts every row of the result set.
func (rs *ResultSet) Objects() JsonArray {
	arr := make(JsonArray, 0, rs.Len())
	for _, rec := range rs.Records() {
		arr = append(arr, rec.Object())
	}
	return arr
}

func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return formatTime(x)
	default:
		return x
	}
}
