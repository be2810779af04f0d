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

package report

import (
	"context"

	"github.com/tomoncle/parkdesk/database"
	"github.com/tomoncle/parkdesk/types"
)

// Builtin returns a registry holding the parking reports.
func Builtin() Registry {
	r := NewRegistry()
	for _, def := range builtins() {
		_ = r.Register(def)
	}
	return r
}

func builtins() []*Definition {
	return []*Definition{
		{
			ID:     "1",
			Name:   "cars-on-floor",
			Title:  "Cars on floor",
			Params: []Param{{Name: "floor", Kind: ParamInt}},
			Query: "SELECT p.p_number, cop.car_number, car.mark, car.model" +
				" FROM parking_place p" +
				" JOIN car_on_parking cop ON p.p_number = cop.parking_number" +
				" JOIN car car ON car.c_number = cop.car_number" +
				" WHERE p.floor = ?" +
				" ORDER BY p.p_number",
			Priority: 1,
		},
		{
			ID:     "2",
			Name:   "events-by-date",
			Title:  "Events by date",
			Params: []Param{{Name: "date", Kind: ParamDate}},
			Query: "SELECT e.id, e.e_date, e.e_time, e.event, ec.car_number" +
				" FROM parking_event e" +
				" LEFT JOIN event_car ec ON e.id = ec.event_id" +
				" WHERE e.e_date = ?" +
				" ORDER BY e.id",
			Priority: 2,
		},
		{
			ID:    "3",
			Name:  "occupancy",
			Title: "Occupancy per floor",
			Query: "SELECT p.floor, count(cop.car_number) AS occupied" +
				" FROM parking_place p" +
				" LEFT JOIN car_on_parking cop ON p.p_number = cop.parking_number" +
				" GROUP BY p.floor ORDER BY p.floor",
			Priority: 3,
		},
		{
			ID:    "4",
			Name:  "cars-on-parking",
			Title: "Cars on parking",
			Query: "SELECT car.c_number, car.mark, car.model, driver.name AS driver_name, cop.parking_number" +
				" FROM car_on_parking cop" +
				" JOIN car car ON cop.car_number = car.c_number" +
				" LEFT JOIN driver driver ON car.driver_name = driver.name" +
				" ORDER BY cop.parking_number",
			Priority: 4,
		},
	}
}

// Fetcher runs one query on its own connection.
type Fetcher interface {
	Fetch(ctx context.Context, stmt types.Statement) (*types.ResultSet, error)
}

// Runner executes reports from a registry.
type Runner struct {
	fetcher  Fetcher
	registry Registry
	logger   database.Logger
}

func NewRunner(fetcher Fetcher, registry Registry, logger database.Logger) *Runner {
	if registry == nil {
		registry = Builtin()
	}
	if logger == nil {
		logger = database.NewLogger("REPORT")
	}
	return &Runner{fetcher: fetcher, registry: registry, logger: logger}
}

func (r *Runner) Registry() Registry { return r.registry }

// Run binds args to the report named key and runs it. An unknown report
// is NotFound.
func (r *Runner) Run(ctx context.Context, key string, args ...string) (*types.ResultSet, error) {
	def, ok := r.registry.Lookup(key)
	if !ok {
		return nil, types.Errorf(types.NotFound, "report", "no report %q", key)
	}
	stmt, err := def.Bind(args...)
	if err != nil {
		return nil, err
	}
	rs, err := r.fetcher.Fetch(ctx, stmt)
	if err != nil {
		return nil, database.WrapError(types.StatementFailed, "report "+def.Name, err)
	}
	r.logger.Debug("Report finished", "report", def.Name, "rows", rs.Len())
	return rs, nil
}
