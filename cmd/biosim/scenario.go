package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/biosim/internal/automation"
	"github.com/san-kum/biosim/internal/sim"
)

func scenarioCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted protocol of field perturbations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := sc.BaseConfig()
	if err != nil {
		return err
	}
	s, err := sim.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	results, err := automation.RunScenario(cmd.Context(), sc, s)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tTICK\tFIELD\tSTART\tEND\tCLAMPS")
	for _, r := range results {
		for _, f := range cfg.Fields {
			totals := r.Result.Totals[f.Name]
			if len(totals) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%.6g\t%.6g\t%d\n",
				r.Label, r.Result.Ticks, f.Name, totals[0], totals[len(totals)-1], r.Result.Clamps[f.Name])
		}
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}
