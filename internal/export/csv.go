/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"conduitroute/internal/schedule"
)

var csvHeader = []string{"run_id", "trade_size", "material", "stick", "raw_in", "deduct_in", "cut_in", "pieces", "bends", "angles"}

// WriteCutListsCSV writes one row per stick across all lists.
func WriteCutListsCSV(w io.Writer, lists []schedule.CutList) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, cl := range lists {
		for i, s := range cl.Sticks {
			angles := make([]string, len(s.BendAngles))
			for j, a := range s.BendAngles {
				angles[j] = ftoa(a)
			}
			rec := []string{
				cl.RunID,
				cl.TradeSize,
				string(cl.Material),
				strconv.Itoa(i + 1),
				ftoa(s.RawLengthInches),
				ftoa(s.TotalDeductInches),
				ftoa(s.CutLengthInches),
				strconv.Itoa(s.SegmentCount),
				strconv.Itoa(s.BendCount),
				strings.Join(angles, ";"),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }
