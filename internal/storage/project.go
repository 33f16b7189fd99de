/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"conduitroute/internal/store"
)

const (
	ManifestFileName = "conduit.json"
	BackupsDirName   = "backups"

	// ManifestFormat is the version of the manifest envelope.
	ManifestFormat = 1
)

// Standard subfolders of a project directory.
var standardSubDirs = []string{
	"tables",
	"exports",
	BackupsDirName,
}

// Manifest is the on-disk project document.
type Manifest struct {
	Format  int            `json:"format"`
	Name    string         `json:"name"`
	SavedAt string         `json:"savedAt,omitempty"`
	Model   store.Snapshot `json:"model"`
}

// NewManifest wraps a store snapshot for saving.
func NewManifest(name string, st *store.ModelStore) Manifest {
	return Manifest{Format: ManifestFormat, Name: name, Model: st.Snapshot()}
}

// ProjectHandle keeps track of the project state loaded/saved from disk.
// Root is the project directory containing conduit.json and subfolders.
type ProjectHandle struct {
	Root         string
	ManifestPath string
	Manifest     Manifest
}

// Store rebuilds a model store from the manifest.
func (ph *ProjectHandle) Store() (*store.ModelStore, error) {
	return store.Restore(ph.Manifest.Model)
}

// SetStore replaces the manifest model with a snapshot of st.
func (ph *ProjectHandle) SetStore(st *store.ModelStore) {
	ph.Manifest.Model = st.Snapshot()
}

// InitProject creates a new project directory at root (creating it if it doesn't exist),
// scaffolds the standard subfolders, writes the manifest transactionally and creates the index.
func InitProject(root string, m Manifest) (*ProjectHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := scaffold(root); err != nil {
		return nil, err
	}
	if m.Format == 0 {
		m.Format = ManifestFormat
	}
	ph := &ProjectHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Manifest:     m,
	}
	if err := Save(ph); err != nil {
		return nil, err
	}
	db, err := InitOrOpenIndex(root)
	if err != nil {
		return nil, err
	}
	_ = db.Close()
	return ph, nil
}

func scaffold(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create project root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return nil
}

// Open loads an existing project from the given root directory.
// If the current manifest cannot be read or parsed, the latest backup is used.
func Open(root string) (*ProjectHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err == nil {
		var m Manifest
		if err = decodeManifest(b, &m); err == nil {
			return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: m}, nil
		}
	}
	m, berr := openFromLatestBackup(root)
	if berr != nil {
		return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
	}
	return &ProjectHandle{Root: root, ManifestPath: mpath, Manifest: *m}, nil
}

func decodeManifest(b []byte, m *Manifest) error {
	if err := json.Unmarshal(b, m); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if m.Format > ManifestFormat {
		return fmt.Errorf("manifest format %d is newer than supported %d", m.Format, ManifestFormat)
	}
	return nil
}

// Save writes the manifest to disk with transactional semantics
// and a timestamped backup of the previous manifest (if present).
func Save(ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if ph.Root == "" || ph.ManifestPath == "" {
		return errors.New("invalid ProjectHandle: missing paths")
	}
	ph.Manifest.SavedAt = time.Now().UTC().Format(time.RFC3339)
	data, err := marshalManifest(ph.Manifest)
	if err != nil {
		return err
	}

	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(ph.ManifestPath); statErr == nil {
		if cerr := copyFile(ph.ManifestPath, backupName(bdir, "")); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// temp file in the same directory, then rename over the target
	dir := filepath.Dir(ph.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// Windows cannot rename over an existing file
	if _, err := os.Stat(ph.ManifestPath); err == nil {
		_ = os.Remove(ph.ManifestPath)
	}
	if rerr := os.Rename(temp, ph.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// SaveAs writes the manifest to a new root folder, scaffolding structure if needed, and updates the handle.
func SaveAs(ph *ProjectHandle, newRoot string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := scaffold(newRoot); err != nil {
		return err
	}
	ph.Root = newRoot
	ph.ManifestPath = filepath.Join(newRoot, ManifestFileName)
	return Save(ph)
}

// AutosaveCrashSnapshot writes the in-memory manifest into the backups folder
// without touching conduit.json. The file is picked up by Open's backup fallback.
func AutosaveCrashSnapshot(ph *ProjectHandle) (string, error) {
	if ph == nil || ph.Root == "" {
		return "", errors.New("invalid ProjectHandle")
	}
	data, err := marshalManifest(ph.Manifest)
	if err != nil {
		return "", err
	}
	bdir := filepath.Join(ph.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	path := backupName(bdir, "-crash")
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

func marshalManifest(m Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func backupName(dir, tag string) string {
	stamp := time.Now().Format("20060102-150405")
	return filepath.Join(dir, fmt.Sprintf("%s.%s%s.bak", ManifestFileName, stamp, tag))
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries the newest backup first and walks back until one parses.
func openFromLatestBackup(root string) (*Manifest, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = fmt.Errorf("read backup: %w", err)
			continue
		}
		var m Manifest
		if err := decodeManifest(b, &m); err != nil {
			lastErr = err
			continue
		}
		return &m, nil
	}
	return nil, lastErr
}
