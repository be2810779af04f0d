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

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 20

// QueryFilter is a single-column substring match.
type QueryFilter struct {
	Column string
	Value  string
}

// NewQueryFilter creates a filter on column containing value.
func NewQueryFilter(column, value string) *QueryFilter {
	return &QueryFilter{Column: column, Value: value}
}

// Pattern returns the LIKE pattern for the filter value.
func (f *QueryFilter) Pattern() string {
	return "%" + f.Value + "%"
}

// PageState is the cursor over the rows of the current table.
type PageState struct {
	Table     string
	Filter    *QueryFilter
	PageIndex int
	PageSize  int
	TotalRows int
}

// NewPageState opens table at page 0 with no filter.
func NewPageState(table string, pageSize int) *PageState {
	p := &PageState{Table: table, PageSize: pageSize}
	p.GetPageSize()
	return p
}

func (p *PageState) GetPageSize() int {
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p.PageSize
}

// TotalPages is max(1, ceil(TotalRows/PageSize)).
func (p *PageState) TotalPages() int {
	size := p.GetPageSize()
	pages := (p.TotalRows + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}

// Clamp pulls PageIndex into [0, TotalPages-1].
func (p *PageState) Clamp() {
	if last := p.TotalPages() - 1; p.PageIndex > last {
		p.PageIndex = last
	}
	if p.PageIndex < 0 {
		p.PageIndex = 0
	}
}

func (p *PageState) GetOffset() int {
	return p.PageIndex * p.GetPageSize()
}

// Target returns the page index delta pages away, saturated at both ends.
func (p *PageState) Target(delta int) int {
	target := p.PageIndex + delta
	if last := p.TotalPages() - 1; target > last {
		target = last
	}
	if target < 0 {
		target = 0
	}
	return target
}

// Clone returns an independent copy.
func (p *PageState) Clone() *PageState {
	c := *p
	if p.Filter != nil {
		f := *p.Filter
		c.Filter = &f
	}
	return &c
}

// Page is one loaded page of a table together with its position.
type Page struct {
	*ResultSet
	Table      string
	PageIndex  int
	TotalPages int
	TotalRows  int
}
