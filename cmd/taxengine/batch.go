package main

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/calculation"
	"github.com/rgehrsitz/taxengine/internal/output"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func (a *app) batchCmd() *cobra.Command {
	var noProgress, allowFailures, preload bool
	cmd := &cobra.Command{
		Use:   "batch [profiles-file]",
		Short: "Calculate every profile of a batch file concurrently",
		Long: `Calculate every profile listed under "profiles:" in a batch file. Profiles are
evaluated concurrently; a failing profile is reported on its own and never stops the rest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := a.parser().LoadBatchFromFile(args[0])
			if err != nil {
				return err
			}

			if preload {
				seen := map[int]bool{}
				for _, p := range profiles {
					if seen[p.TaxYear] {
						continue
					}
					seen[p.TaxYear] = true
					if err := a.registry.Preload(cmd.Context(), p.TaxYear); err != nil {
						return fmt.Errorf("rule data for %d is invalid: %w", p.TaxYear, err)
					}
				}
			}

			opts := calculation.BatchOptions{Workers: a.settings.Batch.Workers}
			if !noProgress {
				bar := progressbar.NewOptions(len(profiles),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("Calculating"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionClearOnFinish(),
				)
				opts.OnProgress = func(done, _ int) {
					if err := bar.Set(done); err != nil {
						a.logger.Sugar().Warnf("failed to update progress bar: %v", err)
					}
				}
			}

			items := a.engine.CalculateBatch(cmd.Context(), profiles, opts)
			if err := a.emit(cmd, output.FromBatch(items)); err != nil {
				return err
			}

			sum := calculation.Summarize(items)
			fmt.Fprintf(cmd.ErrOrStderr(), "%d profile(s): %d calculated, %d failed, %d warning(s)\n",
				sum.Total, sum.Succeeded, sum.Failed, sum.Warnings)
			if sum.Failed > 0 && !allowFailures {
				return fmt.Errorf("%d of %d profiles failed", sum.Failed, sum.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntP("workers", "w", 0, "concurrent calculations (default: number of CPUs)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	cmd.Flags().BoolVar(&allowFailures, "allow-failures", false, "exit successfully even when some profiles fail")
	cmd.Flags().BoolVar(&preload, "preload", false, "load and check every rule set of each tax year before calculating")
	_ = a.v.BindPFlag("batch.workers", cmd.Flags().Lookup("workers"))
	return cmd
}
