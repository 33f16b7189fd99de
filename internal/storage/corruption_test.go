/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"conduitroute/internal/bend"
)

func TestDetectAndRebuildIndex_OnCorruption(t *testing.T) {
	root := t.TempDir()
	st := sampleStore(t)
	if _, err := InitProject(root, NewManifest("CorruptTest", st)); err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	idx := IndexPath(root)
	_ = os.Remove(idx + "-wal")
	_ = os.Remove(idx + "-shm")
	if err := os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rebuilt, err := DetectAndRebuildIndex(ctx, root, st, bend.NewService(nil))
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	fi, err := os.Stat(idx)
	if err != nil || fi.Size() == 0 {
		t.Fatalf("rebuilt index missing or empty: %v", err)
	}
	bdir := filepath.Join(root, IndexDirName, "backups")
	entries, _ := os.ReadDir(bdir)
	if len(entries) == 0 {
		t.Fatalf("expected backup file in %s", bdir)
	}

	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("InitOrOpenIndex: %v", err)
	}
	defer db.Close()
	if _, found, err := GetCutList(ctx, db, "CR-001"); err != nil || !found {
		t.Fatalf("rebuilt cut list found=%v err=%v", found, err)
	}
}

func TestDetectAndRebuildIndex_HealthyIsNoop(t *testing.T) {
	root := t.TempDir()
	st := sampleStore(t)
	if _, err := InitProject(root, NewManifest("Healthy", st)); err != nil {
		t.Fatalf("InitProject error: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(context.Background(), root, st, bend.NewService(nil))
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if rebuilt {
		t.Fatalf("healthy index should not be rebuilt")
	}
}
