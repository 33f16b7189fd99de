/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a report file, an autosaved manifest snapshot
// and a non-zero exit.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "conduitroute/internal/log"
	"conduitroute/internal/storage"
	"conduitroute/internal/telemetry"
	"conduitroute/internal/version"
)

// ExitCode is passed to the exit function after a recovered panic.
const ExitCode = 2

// exitFn is swapped in tests so Recover does not end the process.
var exitFn = os.Exit

// Recover captures a panic, logs it with the stack, writes a report file and
// autosaves the project manifest when ph is not nil.
//
// Usage: defer crash.Recover(ph)
func Recover(ph *storage.ProjectHandle) { Handle(recover(), ph) }

// Handle does the work of Recover for a value the caller recovered itself. Use
// it when the handle is only known after the defer is set up:
//
//	defer func() { crash.Handle(recover(), ph) }()
func Handle(r any, ph *storage.ProjectHandle) {
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, report, err := writeReport(ph, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if ph != nil {
		if path, err := storage.AutosaveCrashSnapshot(ph); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", path))
		}
	}
	if err := telemetry.Default().UploadCrash(report); err != nil {
		l.Debug("crash upload failed", slog.Any("err", err))
	}

	_, _ = fmt.Fprintf(os.Stderr, "conduitroute: fatal error, crash report saved to %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "version %s on %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(ExitCode)
}

// writeReport writes the report into the project's backups folder, or the temp
// dir without a project, and returns its path and contents.
func writeReport(ph *storage.ProjectHandle, panicVal any, stack []byte) (string, []byte, error) {
	dir := os.TempDir()
	if ph != nil && ph.Root != "" {
		dir = filepath.Join(ph.Root, storage.BackupsDirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			dir = os.TempDir()
		}
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "conduitroute crash report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if ph != nil {
		fmt.Fprintf(&buf, "ProjectRoot: %s\n", ph.Root)
		fmt.Fprintf(&buf, "Manifest: %s\n", ph.ManifestPath)
		m := ph.Manifest.Model
		fmt.Fprintf(&buf, "Model: %d segments, %d fittings, %d runs\n", len(m.Segments), len(m.Fittings), len(m.Runs))
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, buf.Bytes(), err
	}
	return path, buf.Bytes(), nil
}
