/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"os"

	"conduitroute/internal/domain"
	"conduitroute/internal/geom"

	"gopkg.in/yaml.v3"
)

// routeJob is the YAML input of the route command.
type routeJob struct {
	FromEquipment string                `yaml:"from"`
	ToEquipment   string                `yaml:"to"`
	Voltage       string                `yaml:"voltage"`
	Waypoints     []geom.XYZ            `yaml:"waypoints"`
	Options       domain.RoutingOptions `yaml:"options"`
}

func loadJob(path string) (routeJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return routeJob{}, fmt.Errorf("read job: %w", err)
	}
	return parseJob(data)
}

func parseJob(data []byte) (routeJob, error) {
	var job routeJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return routeJob{}, fmt.Errorf("parse job: %w", err)
	}
	if len(job.Waypoints) < 2 {
		return routeJob{}, errors.New("job needs at least two waypoints")
	}
	for i, o := range job.Options.Obstacles {
		job.Options.Obstacles[i] = geom.Box(o.Min, o.Max)
	}
	return job, nil
}
