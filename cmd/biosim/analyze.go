package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/biosim/internal/agent"
	"github.com/san-kum/biosim/internal/analysis"
	"github.com/san-kum/biosim/internal/export"
	"github.com/san-kum/biosim/internal/integrators"
	"github.com/san-kum/biosim/internal/storage"
)

var (
	netDt     float64
	netH      float64
	netTime   float64
	netExt    float64
	netInteg  string
	svgPath   string
	xAxis     int
	yAxis     int
	param     string
	paramMin  float64
	paramMax  float64
	paramStep int
	stateIdx  int
	transient float64
)

func analysisCommands() []*cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of stored field totals",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&seriesName, "series", "", "series to analyze (default: all)")

	ticksCmd := &cobra.Command{
		Use:   "ticks [run_id]",
		Short: "show the per-tick log of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showTicks,
	}
	ticksCmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show (0 for all)")

	phaseCmd := &cobra.Command{
		Use:   "phase [model]",
		Short: "phase portrait of a single cell network",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	addNetworkFlags(phaseCmd)
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().StringVar(&svgPath, "svg", "", "also write the portrait as SVG to this path")

	bifCmd := &cobra.Command{
		Use:   "bifurcation [model]",
		Short: "sweep a network parameter and record where it settles",
		Args:  cobra.ExactArgs(1),
		RunE:  bifurcationPlot,
	}
	addNetworkFlags(bifCmd)
	bifCmd.Flags().StringVar(&param, "param", "vmax", "parameter to sweep")
	bifCmd.Flags().Float64Var(&paramMin, "min", 0.5, "sweep start")
	bifCmd.Flags().Float64Var(&paramMax, "max", 2, "sweep end")
	bifCmd.Flags().IntVar(&paramStep, "steps", 20, "sweep points")
	bifCmd.Flags().IntVar(&stateIdx, "index", 1, "state index to record")
	bifCmd.Flags().Float64Var(&transient, "transient", 200, "settling time before recording")

	return []*cobra.Command{analyzeCmd, ticksCmd, phaseCmd, bifCmd}
}

func addNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&netDt, "dt", 1, "tick length")
	cmd.Flags().Float64Var(&netH, "h", 0.1, "integration step")
	cmd.Flags().Float64Var(&netTime, "time", 600, "duration")
	cmd.Flags().Float64Var(&netExt, "ext", 1, "constant external concentration")
	cmd.Flags().StringVar(&netInteg, "integrator", "rk4", "integrator")
}

func buildNetwork(model string, params map[string]float64) (agent.Network, error) {
	integ, err := integrators.New(netInteg)
	if err != nil {
		return nil, err
	}
	return agent.NewNetwork(model, integ, agent.NetworkOptions{H: netH, TimeScale: 1, Dt: netDt}, params)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
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
	if len(series.Times) < 4 {
		return fmt.Errorf("need at least 4 samples, have %d", len(series.Times))
	}
	sample := series.Times[1] - series.Times[0]

	names := series.Names
	if seriesName != "" {
		if _, ok := series.Values[seriesName]; !ok {
			return fmt.Errorf("no series %q in run %s (have %v)", seriesName, runID, series.Names)
		}
		names = []string{seriesName}
	}

	fmt.Printf("run: %s (%s)\n", meta.ID, meta.Name)
	fmt.Printf("samples: %d every %.4g\n\n", len(series.Times), sample)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tPERIOD\tPEAKS\tCLAMPS")
	for _, name := range names {
		data := series.Values[name]
		period := analysis.DominantPeriod(data, sample)
		p := "-"
		if period > 0 {
			p = fmt.Sprintf("%.4g", period)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", name, p, len(analysis.Peaks(data)), meta.Clamps[name])
	}
	return w.Flush()
}

func showTicks(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	entries, err := storage.ReadTickLog(filepath.Join(st.RunDir(args[0]), tickLogFile))
	if err != nil {
		return err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICK\tTIME\tFIELD\tTOTAL\tCLAMPS")
	for _, e := range entries {
		for _, name := range sortedKeys(e.Totals) {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%.6g\t%d\n", e.Tick, e.Time, name, e.Totals[name], e.Clamps[name])
		}
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func phasePlot(cmd *cobra.Command, args []string) error {
	net, err := buildNetwork(args[0], nil)
	if err != nil {
		return err
	}

	portrait, err := analysis.GeneratePhasePortrait(net, netExt, xAxis, yAxis, netDt, netTime)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s\n", args[0])
	fmt.Printf("phase portrait: x%d vs x%d, %d points\n\n", xAxis, yAxis, len(portrait.Points))
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 80, 30))

	if svgPath != "" {
		svg := export.TrajectoryToSVG(portrait.Points, 600, 600, "#ff9f43")
		if err := os.WriteFile(svgPath, []byte(svg), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}

	if len(portrait.Points) >= 4 {
		ys := make([]float64, len(portrait.Points))
		for i, p := range portrait.Points {
			ys[i] = p.Y
		}
		fmt.Println(asciigraph.Plot(ys,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("x%d vs time", yAxis)),
		))
		if period := analysis.DominantPeriod(ys, netDt); period > 0 {
			fmt.Printf("\ndominant period: %.4g\n", period)
		}
	}
	return nil
}

func bifurcationPlot(cmd *cobra.Command, args []string) error {
	model := args[0]
	build := func(params map[string]float64) (agent.Network, error) {
		return buildNetwork(model, params)
	}

	data, err := analysis.BifurcationDiagram(build, param, paramMin, paramMax, paramStep, stateIdx, netExt, netDt, transient, netTime)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s, sweeping %s over [%g, %g]\n\n", model, param, paramMin, paramMax)
	fmt.Println(analysis.BifurcationToASCII(data, 80, 24))
	return nil
}
