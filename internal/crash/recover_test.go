/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conduitroute/internal/domain"
	"conduitroute/internal/storage"
	"conduitroute/internal/store"
)

// TestRecover_WritesReportAndSnapshot checks that Recover handles a panic with
// a report, a crash snapshot and the exit code, without ending the test process.
func TestRecover_WritesReportAndSnapshot(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	ph, err := storage.InitProject(root, storage.NewManifest("crash", store.New(domain.DefaultSettings())))
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}

	func() {
		defer Recover(ph)
		panic("boom")
	}()

	bdir := filepath.Join(root, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	var report, snapshot string
	for _, f := range files {
		switch name := f.Name(); {
		case strings.HasPrefix(name, "crash-") && strings.HasSuffix(name, ".log"):
			report = filepath.Join(bdir, name)
		case strings.HasSuffix(name, "-crash.bak"):
			snapshot = filepath.Join(bdir, name)
		}
	}
	if report == "" {
		t.Fatalf("expected crash report file under backups dir")
	}
	if snapshot == "" {
		t.Fatalf("expected crash snapshot under backups dir")
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}
	if called != ExitCode {
		t.Fatalf("expected exit code %d, got %d", ExitCode, called)
	}
}

func TestRecover_NoPanicIsNoop(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("exit called without a panic")
	}
}

func TestHandle_LateBoundHandle(t *testing.T) {
	oldStderr := os.Stderr
	_, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
	}()
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	func() {
		var ph *storage.ProjectHandle
		defer func() { Handle(recover(), ph) }()
		ph = &storage.ProjectHandle{Root: root, ManifestPath: filepath.Join(root, storage.ManifestFileName)}
		panic("late")
	}()

	if called != ExitCode {
		t.Fatalf("expected exit code %d, got %d", ExitCode, called)
	}
	files, _ := os.ReadDir(filepath.Join(root, storage.BackupsDirName))
	if len(files) == 0 {
		t.Fatalf("expected report under the late-bound project root")
	}
}
