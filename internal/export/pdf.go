/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"conduitroute/internal/schedule"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls the cut list PDF. Units are millimetres on A4 unless PageSize says otherwise.
type PDFOptions struct {
	Title     string
	PageSize  string // gofpdf size name, "A4" or "Letter"
	Landscape bool
	Author    string
}

var stickColumns = []struct {
	head  string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Raw (in)", 28, "R"},
	{"Deduct (in)", 28, "R"},
	{"Cut (in)", 28, "R"},
	{"Pieces", 18, "C"},
	{"Bends", 18, "C"},
	{"Angles", 50, "L"},
}

// WriteCutListsPDF renders one section per cut list: a header line, the stick table and rise/drop notes.
func WriteCutListsPDF(w io.Writer, lists []schedule.CutList, opt PDFOptions) error {
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}
	orient := "P"
	if opt.Landscape {
		orient = "L"
	}
	pdf := gofpdf.New(orient, "mm", size, "")
	title := opt.Title
	if title == "" {
		title = "Conduit cut list"
	}
	pdf.SetTitle(title, true)
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s  page %d", time.Now().Format("2006-01-02"), pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")

	for _, cl := range lists {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("Run %s  %s %s  %.2f ft", cl.RunID, cl.TradeSize, cl.Material, cl.RunLengthFeet)), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(225, 225, 225)
		for _, c := range stickColumns {
			pdf.CellFormat(c.width, 6, c.head, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for i, s := range cl.Sticks {
			cells := []string{
				fmt.Sprintf("%d", i+1),
				fmt.Sprintf("%.2f", s.RawLengthInches),
				fmt.Sprintf("%.2f", s.TotalDeductInches),
				fmt.Sprintf("%.2f", s.CutLengthInches),
				fmt.Sprintf("%d", s.SegmentCount),
				fmt.Sprintf("%d", s.BendCount),
				tr(formatAngles(s.BendAngles)),
			}
			for j, c := range stickColumns {
				pdf.CellFormat(c.width, 6, cells[j], "1", 0, c.align, false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(stickColumns[0].width, 6, "", "1", 0, "C", false, 0, "")
		pdf.CellFormat(stickColumns[1].width, 6, fmt.Sprintf("%.2f", cl.TotalRawInches), "1", 0, "R", false, 0, "")
		pdf.CellFormat(stickColumns[2].width, 6, fmt.Sprintf("%.2f", cl.TotalDeductInches), "1", 0, "R", false, 0, "")
		pdf.CellFormat(stickColumns[3].width, 6, fmt.Sprintf("%.2f", cl.TotalCutInches), "1", 1, "R", false, 0, "")

		if len(cl.RiseDrops) > 0 {
			pdf.SetFont("Helvetica", "", 9)
			for _, rd := range cl.RiseDrops {
				kind := "Drop"
				if rd.IsRise {
					kind = "Rise"
				}
				pdf.CellFormat(0, 5, fmt.Sprintf("%s %.2f ft at %s", kind, rd.VerticalDistance, rd.Location), "", 1, "L", false, 0, "")
			}
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func formatAngles(angles []float64) string {
	parts := make([]string, len(angles))
	for i, a := range angles {
		parts[i] = fmt.Sprintf("%.1f°", a)
	}
	return strings.Join(parts, " ")
}
