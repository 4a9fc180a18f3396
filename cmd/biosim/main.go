package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/biosim/internal/config"
	"github.com/san-kum/biosim/internal/ctxlog"
	"github.com/san-kum/biosim/internal/export"
	"github.com/san-kum/biosim/internal/metrics"
	"github.com/san-kum/biosim/internal/sim"
	"github.com/san-kum/biosim/internal/storage"
	"github.com/san-kum/biosim/internal/viz"
)

const (
	snapshotFile = "final.snap.zst"
	tickLogFile  = "ticks.jsonl.zst"
	indexFile    = "index.db"
)

var (
	dataDir    string
	logLevel   string
	logFormat  string
	configFile string
	preset     string
	ticks      int
	seed       int64
	workers    int
	integrator string
	restore    string
	frameRate  int
	numRuns    int
	seriesName string
	limit      int

	exportFormat string
	exportField  string
	exportAxis   int
	exportAt     int
	exportTheme  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "biosim",
		Short:         "agent and reaction-diffusion simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := ctxlog.New(logLevel, logFormat, os.Stderr)
			slog.SetDefault(logger)
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".biosim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store the results",
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().StringVar(&restore, "restore", "", "start from the final fields of a stored run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare sequential and partitioned ticking",
		RunE:  benchSimulation,
	}
	addConfigFlags(benchCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run one configuration over consecutive seeds",
		RunE:  runEnsemble,
	}
	addConfigFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored field totals",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, csv, svg)")
	exportCmd.Flags().StringVar(&exportTheme, "theme", "magma", "svg colour theme")
	exportCmd.Flags().StringVar(&exportField, "field", "", "field to export as a plane (default: first)")
	exportCmd.Flags().IntVar(&exportAxis, "axis", 2, "plane normal axis")
	exportCmd.Flags().IntVar(&exportAt, "at", -1, "plane index (default: middle)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-12s %d fields, %d populations, %d ticks\n", name, len(p.Fields), len(p.Populations), p.Ticks)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, ensembleCmd, listCmd, plotCmd, exportCmd, presetsCmd)
	rootCmd.AddCommand(analysisCommands()...)
	rootCmd.AddCommand(tuneCommand(), scenarioCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "diffusion", "use preset configuration")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "number of ticks (overrides config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "agent partitions (overrides config)")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (overrides config)")
}

// loadConfig resolves the run configuration: a config file wins over a
// preset, and explicitly set flags win over both.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	return cfg, cfg.Validate()
}

func fieldNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Fields))
	for i, f := range cfg.Fields {
		names[i] = f.Name
	}
	return names
}

func runSimulation(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	log := ctxlog.FromContext(ctx)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := sim.Build(ctx, cfg)
	if err != nil {
		return err
	}
	if restore != "" {
		snap, err := storage.ReadSnapshot(filepath.Join(st.RunDir(restore), snapshotFile))
		if err != nil {
			return fmt.Errorf("restore %s: %w", restore, err)
		}
		if err := storage.RestoreFields(s, snap); err != nil {
			return fmt.Errorf("restore %s: %w", restore, err)
		}
		log.Info("fields restored", slog.String("from", restore), slog.Uint64("tick", snap.Header.Tick))
	}
	for _, m := range metrics.Standard(fieldNames(cfg)) {
		s.AddMetric(m)
	}

	runID, err := st.Create(cfg.Name)
	if err != nil {
		return err
	}
	runDir := st.RunDir(runID)

	if cfg.Output.TickLog {
		tl, err := storage.NewTickLog(filepath.Join(runDir, tickLogFile))
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, tl.Close())
		}()
		s.AddObserver(tl)
	}

	fmt.Printf("running %s: %d fields, %d agents, %d ticks, %d workers\n",
		cfg.Name, len(s.Fields()), len(s.Agents()), cfg.Ticks, max(cfg.Workers, 1))

	result, runErr := s.Run(ctx, cfg.Ticks)
	if result == nil {
		return runErr
	}

	meta, err := st.Save(runID, cfg, len(s.Agents()), result)
	if err != nil {
		return err
	}
	if cfg.Output.Snapshot {
		if err := storage.WriteSnapshot(filepath.Join(runDir, snapshotFile), storage.Capture(s, runID)); err != nil {
			return err
		}
	}

	idx, err := storage.OpenIndex(filepath.Join(dataDir, indexFile))
	if err != nil {
		log.Warn("run index unavailable", slog.Any("err", err))
	} else {
		if err := idx.Record(ctx, meta); err != nil {
			log.Warn("run not indexed", slog.String("run", runID), slog.Any("err", err))
		}
		idx.Close()
	}

	fmt.Printf("completed in %.3fs\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.Ticks)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := sim.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(cmd.Context(), s, frameRate)
}

func benchSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	parts := []int{1, 2, 4, 8}
	if cfg.Workers > 1 && !contains(parts, cfg.Workers) {
		parts = append(parts, cfg.Workers)
	}

	fmt.Printf("benchmarking %s (%d ticks)\n\n", cfg.Name, cfg.Ticks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tAGENTS\tTIME\tTICKS/SEC\tSPEEDUP\tMATCH")

	var base *sim.Simulation
	var baseTime time.Duration
	for _, n := range parts {
		c := cfg.Clone()
		c.Workers = n
		s, err := sim.Build(ctx, c)
		if err != nil {
			return err
		}

		start := time.Now()
		if _, err := s.Run(ctx, c.Ticks); err != nil {
			return err
		}
		elapsed := time.Since(start)

		match := "-"
		if base == nil {
			base, baseTime = s, elapsed
		} else {
			match = fmt.Sprintf("%t", sameFields(base, s))
		}
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.2fx\t%s\n",
			n,
			len(s.Agents()),
			elapsed.Round(time.Microsecond),
			float64(c.Ticks)/elapsed.Seconds(),
			baseTime.Seconds()/elapsed.Seconds(),
			match,
		)
	}
	return w.Flush()
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// sameFields reports whether two simulations hold identical field contents.
func sameFields(a, b *sim.Simulation) bool {
	for _, fa := range a.Fields() {
		fb := b.Field(fa.Name())
		if fb == nil {
			return false
		}
		qa, qb := fa.Quantities(), fb.Quantities()
		for i := range qa {
			if qa[i] != qb[i] {
				return false
			}
		}
	}
	return true
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	names := fieldNames(cfg)
	ens := sim.NewEnsemble(cfg, numRuns, cfg.Seed, func() []sim.Metric {
		return metrics.Standard(names)
	})

	fmt.Printf("running %d x %s...\n", numRuns, cfg.Name)
	start := time.Now()
	results, err := ens.Run(cmd.Context(), cfg.Ticks)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start).Round(time.Millisecond))

	keys := make([]string, 0, len(results[0].Metrics))
	for k := range results[0].Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV")
	for _, k := range keys {
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = r.Metrics[k]
		}
		mean, std := stat.MeanStdDev(vals, nil)
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\n", k, mean, std)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := recentRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTICKS\tDT\tWORKERS\tAGENTS\tINTEG")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\t%d\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			run.Workers,
			run.Agents,
			run.Integrator,
		)
	}
	return w.Flush()
}

// recentRuns reads the run index, falling back to scanning run directories
// when no index exists.
func recentRuns(ctx context.Context) ([]storage.RunMetadata, error) {
	path := filepath.Join(dataDir, indexFile)
	if _, err := os.Stat(path); err == nil {
		idx, err := storage.OpenIndex(path)
		if err == nil {
			defer idx.Close()
			return idx.Recent(ctx, limit)
		}
		ctxlog.FromContext(ctx).Warn("run index unavailable", slog.Any("err", err))
	}

	runs, err := storage.New(dataDir).List()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	for _, name := range series.Names {
		graph := asciigraph.Plot(series.Values[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" total quantity"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	snapPath := filepath.Join(st.RunDir(runID), snapshotFile)

	if exportFormat == "csv" || exportFormat == "svg" {
		return exportPlane(cmd, st, runID, snapPath)
	}

	data, err := st.Export(runID, snapPath)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, data)
}

// exportPlane rebuilds the run from its stored config, restores the final
// snapshot and writes one concentration plane as CSV or SVG.
func exportPlane(cmd *cobra.Command, st *storage.Store, runID, snapPath string) error {
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return err
	}
	snap, err := storage.ReadSnapshot(snapPath)
	if err != nil {
		return err
	}
	s, err := sim.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if err := storage.RestoreFields(s, snap); err != nil {
		return err
	}

	plane, err := selectPlane(s, exportField, exportAxis, exportAt)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	if exportFormat == "svg" {
		_, err := fmt.Println(export.PlaneToSVG(plane, viz.GetTheme(exportTheme), 12))
		return err
	}
	return storage.ExportPlaneCSV(os.Stdout, plane)
}

// selectPlane returns the concentration plane of the named field, or of the
// first field when name is empty. A negative at picks the middle plane.
func selectPlane(s *sim.Simulation, name string, axis, at int) ([][]float64, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("axis must be 0, 1 or 2, got %d", axis)
	}
	fields := s.Fields()
	if name == "" {
		if len(fields) == 0 {
			return nil, fmt.Errorf("no fields to export")
		}
		name = fields[0].Name()
	}
	f := s.Field(name)
	if f == nil {
		return nil, fmt.Errorf("no field %q", name)
	}
	if at < 0 {
		at = f.Boxes()[axis] / 2
	}
	return f.Slice(axis, at)
}
