package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/biosim/internal/metrics"
	"github.com/san-kum/biosim/internal/optim"
	"github.com/san-kum/biosim/internal/sim"
)

var (
	gridSpecs []string
	objective string
	maximize  bool
	parallel  int
)

func tuneCommand() *cobra.Command {
	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search config parameters against a metric",
		Example: `  biosim tune --preset chemotaxis --ticks 100 \
    --grid population.bacteria.bias=0,0.5,1 --objective spread --maximize`,
		RunE: tuneSimulation,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&gridSpecs, "grid", nil, "parameter grid as path=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&objective, "objective", "clamps", "metric to optimise")
	tuneCmd.Flags().BoolVar(&maximize, "maximize", false, "maximise instead of minimise")
	tuneCmd.Flags().IntVar(&parallel, "parallel", 4, "trials run at once")
	return tuneCmd
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("at least one --grid is required")
	}
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		path, list, ok := strings.Cut(spec, "=")
		if !ok || path == "" || list == "" {
			return nil, nil, fmt.Errorf("bad grid %q, want path=v1,v2,...", spec)
		}
		var values []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", path, err)
			}
			values = append(values, v)
		}
		names = append(names, path)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func tuneSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}

	obj := optim.Metric(objective)
	if maximize {
		obj = optim.Maximize(obj)
	}

	fields := fieldNames(cfg)
	g := optim.NewGridSearch(names, ranges)
	g.SetWorkers(parallel)

	best, trials, err := g.Search(cmd.Context(), cfg, cfg.Ticks, func() []sim.Metric {
		return metrics.Standard(fields)
	}, obj)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(names, "\t")+"\t"+strings.ToUpper(objective))
	for _, t := range trials {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(t.Params[n], 'g', -1, 64))
		}
		switch {
		case t.Err != nil:
			row = append(row, "error: "+t.Err.Error())
		case maximize:
			row = append(row, fmt.Sprintf("%.6g", -t.Score))
		default:
			row = append(row, fmt.Sprintf("%.6g", t.Score))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best.Params == nil {
		return fmt.Errorf("no grid point ran successfully")
	}
	keys := make([]string, 0, len(best.Params))
	for k := range best.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("\nbest:")
	for _, k := range keys {
		fmt.Printf("  %s = %g\n", k, best.Params[k])
	}
	return nil
}
