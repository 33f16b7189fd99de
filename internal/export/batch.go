/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"conduitroute/internal/bend"
	applog "conduitroute/internal/log"
	"conduitroute/internal/schedule"
	"conduitroute/internal/storage"
	"conduitroute/internal/store"
)

// Format is an output format of the cut list exporter.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

var ErrUnknownFormat = errors.New("export: unknown format")

// BatchOptions selects runs and formats for BatchExport.
//
// A relative or empty OutDir is placed under <project>/exports. Files are named
// cutlist.<format>, holding every selected run.
type BatchOptions struct {
	Formats []Format // empty means pdf and csv
	RunIDs  []string // run ids or display ids; empty means all runs
	OutDir  string
	PDF     PDFOptions
}

// BatchExport builds cut lists for the selected runs and writes one file per format.
// It returns the written paths.
func BatchExport(ph *storage.ProjectHandle, st *store.ModelStore, svc *bend.Service, opt BatchOptions) ([]string, error) {
	if ph == nil {
		return nil, errors.New("export: project handle is nil")
	}
	l := applog.WithOperation(applog.WithComponent("export"), "batch")

	lists, err := buildLists(st, svc, opt.RunIDs)
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, errors.New("export: project has no runs")
	}

	outDir := opt.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = []Format{FormatPDF, FormatCSV}
	}
	pdfOpt := opt.PDF
	if pdfOpt.Title == "" {
		pdfOpt.Title = ph.Manifest.Name + " cut list"
	}

	var written []string
	for _, f := range formats {
		f = Format(strings.ToLower(strings.TrimSpace(string(f))))
		path := filepath.Join(outDir, "cutlist."+string(f))
		if err := writeFile(path, f, lists, pdfOpt); err != nil {
			return written, err
		}
		l.Info("exported", slog.String("format", string(f)), slog.String("path", path), slog.Int("runs", len(lists)))
		written = append(written, path)
	}
	return written, nil
}

func buildLists(st *store.ModelStore, svc *bend.Service, ids []string) ([]schedule.CutList, error) {
	if len(ids) == 0 {
		for _, r := range st.Runs() {
			ids = append(ids, r.ID)
		}
	}
	lists := make([]schedule.CutList, 0, len(ids))
	for _, id := range ids {
		cl, err := schedule.BuildCutList(st, id, svc)
		if err != nil {
			return nil, err
		}
		lists = append(lists, cl)
	}
	return lists, nil
}

func writeFile(path string, f Format, lists []schedule.CutList, pdfOpt PDFOptions) (err error) {
	switch f {
	case FormatPDF, FormatCSV:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	if f == FormatPDF {
		return WriteCutListsPDF(out, lists, pdfOpt)
	}
	return WriteCutListsCSV(out, lists)
}
