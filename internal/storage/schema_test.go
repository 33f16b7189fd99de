/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"conduitroute/internal/domain"
	"conduitroute/internal/store"
	gojsonschema "github.com/xeipuuv/gojsonschema"
)

func validateManifest(t *testing.T, data []byte) {
	t.Helper()
	schemaPath := filepath.Join("..", "..", "docs", "conduit.schema.json")
	schemaBytes, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(data))
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("manifest does not conform to schema")
	}
}

func TestManifestConformsToSchema(t *testing.T) {
	ph, err := InitProject(t.TempDir(), NewManifest("Schema Test", sampleStore(t)))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	data, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	validateManifest(t, data)
}

func TestEmptyManifestConformsToSchema(t *testing.T) {
	ph, err := InitProject(t.TempDir(), NewManifest("Empty", store.New(domain.DefaultSettings())))
	if err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	data, err := os.ReadFile(ph.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	validateManifest(t, data)
}
