/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"conduitroute/internal/autoroute"
	"conduitroute/internal/bend"
	"conduitroute/internal/config"
	"conduitroute/internal/crash"
	"conduitroute/internal/export"
	applog "conduitroute/internal/log"
	"conduitroute/internal/schedule"
	"conduitroute/internal/storage"
	"conduitroute/internal/store"
	"conduitroute/internal/telemetry"
	"conduitroute/internal/version"
)

func usage() {
	fmt.Println("conduitroute", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  conduitroute version|-v|--version           Show version")
	fmt.Println("  conduitroute init <dir> [<name>]            Create a new project at <dir>")
	fmt.Println("  conduitroute route <job.yaml> [<dir>]       Route a run; saved into the project at <dir> when given")
	fmt.Println("  conduitroute runs [<dir>]                   List runs with length and continuity")
	fmt.Println("  conduitroute cutlist [<dir>] <runId>        Print the stick cut list of a run")
	fmt.Println("  conduitroute reindex [<dir>]                Check the project index and rebuild it if damaged")
	fmt.Println("  conduitroute export [<dir>] [pdf|csv] [<runId>...]  Write cut lists under <dir>/exports")
	fmt.Println()
	fmt.Println("<dir> defaults to storage.project_dir from the config (or CONDUIT_PROJECT_DIR).")
	fmt.Println("  conduitroute bend <tradeSize> <angle>       Look up bend deduct, offset multiplier and shrink")
	fmt.Println("  conduitroute saddle <depth> [<width> <angle>]  Three-point, or four-point with width, saddle marks")
}

func main() { os.Exit(run(os.Args[1:])) }

type app struct {
	cfg config.AppConfig
	log *slog.Logger
	ph  *storage.ProjectHandle
}

func run(args []string) int {
	cfg, err := config.Load()
	applog.Init(cfg.Logging.Options())
	l := applog.WithComponent("cli")
	if err != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", err))
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		return 2
	}

	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	tc := telemetry.New(tcfg)
	telemetry.SetDefault(tc)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		tc.Close(ctx)
	}()

	a := &app{cfg: cfg, log: l}
	defer func() { crash.Handle(recover(), a.ph) }()

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage()
		return 2
	}
	cmd, rest := args[0], args[1:]
	var cmdErr error
	switch cmd {
	case "version", "--version", "-v":
		fmt.Println(version.String())
		return 0
	case "init":
		cmdErr = a.initProject(rest)
	case "route":
		cmdErr = a.route(rest)
	case "runs":
		cmdErr = a.runs(rest)
	case "cutlist":
		cmdErr = a.cutList(rest)
	case "reindex":
		cmdErr = a.reindex(rest)
	case "export":
		cmdErr = a.export(rest)
	case "bend":
		cmdErr = a.bend(rest)
	case "saddle":
		cmdErr = a.saddle(rest)
	case "help", "-h", "--help":
		usage()
		return 0
	default:
		fmt.Println("unknown command:", cmd)
		usage()
		return 2
	}
	if cmdErr != nil {
		l.Error("command failed", slog.String("cmd", cmd), slog.Any("err", cmdErr))
		fmt.Println("Error:", cmdErr)
		if _, ok := cmdErr.(usageError); ok {
			usage()
			return 2
		}
		return 1
	}
	return 0
}

type usageError string

func (e usageError) Error() string { return string(e) }

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

func (a *app) bendService() (*bend.Service, error) { return a.cfg.Bend.Service() }

// withProjectDir puts the configured project dir in front of args when the
// command got fewer than need arguments or its first argument is not a directory.
func (a *app) withProjectDir(args []string, need int) []string {
	def := a.cfg.Storage.ProjectDir
	if def == "" {
		return args
	}
	if len(args) >= need {
		if fi, err := os.Stat(args[0]); err == nil && fi.IsDir() {
			return args
		}
	}
	return append([]string{def}, args...)
}

// open loads the project at dir and its model store.
func (a *app) open(dir string) (*store.ModelStore, error) {
	ph, err := storage.Open(absDir(dir))
	if err != nil {
		return nil, err
	}
	a.ph = ph
	return ph.Store()
}

func (a *app) initProject(args []string) error {
	if len(args) < 1 {
		return usageError("init requires <dir>")
	}
	root := absDir(args[0])
	name := filepath.Base(root)
	if len(args) > 1 {
		name = args[1]
	}
	a.log.Info("init project", slog.String("root", root), slog.String("name", name))
	st := store.New(a.cfg.Routing.Settings())
	ph, err := storage.InitProject(root, storage.NewManifest(name, st))
	if err != nil {
		return err
	}
	a.ph = ph
	fmt.Println("Created project at", root)
	return nil
}

func (a *app) route(args []string) error {
	if len(args) < 1 {
		return usageError("route requires <job.yaml>")
	}
	job, err := loadJob(args[0])
	if err != nil {
		return err
	}
	st := store.New(a.cfg.Routing.Settings())
	dir := a.cfg.Storage.ProjectDir
	if len(args) > 1 {
		dir = args[1]
	}
	if dir != "" {
		if st, err = a.open(dir); err != nil {
			return err
		}
	}
	a.cfg.Routing.Apply(&job.Options)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rt := autoroute.New(st)
	r, err := rt.Route(ctx, job.Waypoints, job.Options)
	if err != nil {
		return err
	}
	r.FromEquipment, r.ToEquipment, r.Voltage = job.FromEquipment, job.ToEquipment, job.Voltage
	rep := rt.LastReport()
	telemetry.Default().Record("route", map[string]any{
		"legs":       rep.Legs,
		"fallbacks":  rep.Fallbacks,
		"expansions": rep.Expansions,
		"segments":   rep.Segments,
	})

	svc, err := a.bendService()
	if err != nil {
		return err
	}
	if _, err := schedule.AnnotateFittings(st, r.ID, svc); err != nil {
		return err
	}
	cl, err := schedule.BuildCutList(st, r.ID, svc)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: %d segments, %d fittings, %.2f ft\n", r.RunID, len(r.SegmentIDs), len(r.FittingIDs), cl.RunLengthFeet)
	if rep.Fallbacks > 0 {
		fmt.Printf("  %d of %d legs drawn straight (no path found)\n", rep.Fallbacks, rep.Legs)
	}
	for _, f := range st.RunFittings(r) {
		fmt.Printf("  %-8s at %s  %.1f°\n", f.FittingType, f.Location, f.AngleDegrees)
	}
	printCutList(cl)

	if a.ph == nil {
		return nil
	}
	a.ph.SetStore(st)
	if err := storage.Save(a.ph); err != nil {
		return err
	}
	db, err := storage.InitOrOpenIndex(a.ph.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.PutCutList(ctx, db, cl); err != nil {
		return err
	}
	fmt.Println("Saved to", a.ph.Root)
	return nil
}

func (a *app) runs(args []string) error {
	args = a.withProjectDir(args, 1)
	if len(args) < 1 {
		return usageError("runs requires <dir>")
	}
	st, err := a.open(args[0])
	if err != nil {
		return err
	}
	for _, r := range st.Runs() {
		cont, err := st.IsRunContinuous(r.ID)
		if err != nil {
			return err
		}
		short, err := st.ShortSegments(r.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%-8s %-6s %-6s %8.2f ft  %d segs  continuous=%t  short=%d\n",
			r.RunID, r.TradeSize, r.Material, r.ComputeTotalLength(st), len(r.SegmentIDs), cont, len(short))
	}
	return nil
}

func (a *app) cutList(args []string) error {
	args = a.withProjectDir(args, 2)
	if len(args) < 2 {
		return usageError("cutlist requires <dir> and <runId>")
	}
	st, err := a.open(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	db, err := storage.InitOrOpenIndex(a.ph.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	run, ok := st.Run(args[1])
	if !ok {
		return fmt.Errorf("%w: run %q", store.ErrNotFound, args[1])
	}
	cl, found, err := storage.GetCutList(ctx, db, run.RunID)
	if err != nil {
		return err
	}
	if !found {
		svc, err := a.bendService()
		if err != nil {
			return err
		}
		if cl, err = schedule.BuildCutList(st, run.ID, svc); err != nil {
			return err
		}
		if err := storage.PutCutList(ctx, db, cl); err != nil {
			return err
		}
	}
	printCutList(cl)
	return nil
}

func (a *app) reindex(args []string) error {
	args = a.withProjectDir(args, 1)
	if len(args) < 1 {
		return usageError("reindex requires <dir>")
	}
	st, err := a.open(args[0])
	if err != nil {
		return err
	}
	svc, err := a.bendService()
	if err != nil {
		return err
	}
	rebuilt, err := storage.DetectAndRebuildIndex(context.Background(), a.ph.Root, st, svc)
	if err != nil {
		return err
	}
	if rebuilt {
		fmt.Println("Index rebuilt.")
	} else {
		fmt.Println("Index is healthy.")
	}
	return nil
}

func (a *app) export(args []string) error {
	args = a.withProjectDir(args, 1)
	if len(args) < 1 {
		return usageError("export requires <dir>")
	}
	st, err := a.open(args[0])
	if err != nil {
		return err
	}
	svc, err := a.bendService()
	if err != nil {
		return err
	}
	opt := export.BatchOptions{PDF: export.PDFOptions{Author: "conduitroute " + version.Version}}
	rest := args[1:]
	if len(rest) > 0 {
		switch f := export.Format(rest[0]); f {
		case export.FormatPDF, export.FormatCSV:
			opt.Formats = []export.Format{f}
			rest = rest[1:]
		}
	}
	opt.RunIDs = rest
	paths, err := export.BatchExport(a.ph, st, svc, opt)
	for _, p := range paths {
		fmt.Println("Wrote", p)
	}
	return err
}

func (a *app) bend(args []string) error {
	if len(args) < 2 {
		return usageError("bend requires <tradeSize> and <angle>")
	}
	angle, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return usageError("angle must be a number")
	}
	svc, err := a.bendService()
	if err != nil {
		return err
	}
	e, ok := svc.LookupDeduct(args[0], angle)
	if !ok {
		return fmt.Errorf("no bend table rows for trade size %q", args[0])
	}
	fmt.Printf("Trade size %s at %.1f°: deduct %.3f in, radius %.3f in, gain %.3f in\n",
		e.TradeSize, angle, e.DeductInches, e.BendRadius, e.GainInches)
	if m, err := bend.OffsetMultiplier(angle); err == nil {
		fmt.Printf("Offset multiplier %.3f\n", m)
	}
	if s, err := bend.CalculateOffsetShrink(1, angle); err == nil {
		fmt.Printf("Shrink per inch of offset %.4f in\n", s)
	}
	return nil
}

func (a *app) saddle(args []string) error {
	if len(args) < 1 {
		return usageError("saddle requires <depth>")
	}
	depth, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return usageError("depth must be a number")
	}
	if len(args) < 3 {
		m, err := bend.ThreePointSaddle(depth)
		if err != nil {
			return err
		}
		fmt.Printf("Three-point saddle %.2f in: center %.1f°, outer %.1f°\n", depth, m.CenterAngle, m.OuterAngle)
		fmt.Printf("  shift center %.3f in, outer marks ±%.3f in, shrink %.3f in\n", m.CenterShift, m.OuterDistance, m.Shrink)
		return nil
	}
	width, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return usageError("width must be a number")
	}
	angle, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return usageError("angle must be a number")
	}
	m, err := bend.FourPointSaddle(depth, width, angle)
	if err != nil {
		return err
	}
	fmt.Printf("Four-point saddle %.2f in over %.2f in at %.1f°: marks %.3f %.3f %.3f %.3f, shrink %.3f in\n",
		depth, width, angle, m.Marks[0], m.Marks[1], m.Marks[2], m.Marks[3], m.Shrink)
	return nil
}

func printCutList(cl schedule.CutList) {
	fmt.Printf("Cut list %s (%s %s): %d sticks, cut %.2f in, deduct %.2f in\n",
		cl.RunID, cl.TradeSize, cl.Material, len(cl.Sticks), cl.TotalCutInches, cl.TotalDeductInches)
	for i, s := range cl.Sticks {
		fmt.Printf("  #%d  raw %8.2f  cut %8.2f  bends %d\n", i+1, s.RawLengthInches, s.CutLengthInches, s.BendCount)
	}
	for _, rd := range cl.RiseDrops {
		kind := "drop"
		if rd.IsRise {
			kind = "rise"
		}
		fmt.Printf("  %s %.2f ft at %s\n", kind, rd.VerticalDistance, rd.Location)
	}
}
