package main

import (
	"fmt"

	"github.com/rgehrsitz/taxengine/internal/output"
	"github.com/spf13/cobra"
)

func (a *app) calculateCmd() *cobra.Command {
	var withEstimate bool
	cmd := &cobra.Command{
		Use:   "calculate [profile-file]",
		Short: "Calculate federal and state tax for one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.parser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			result, err := a.engine.Calculate(cmd.Context(), profile)
			if err != nil {
				return fmt.Errorf("calculation failed: %w", err)
			}
			report := output.NewReport(result)
			if withEstimate {
				ests, err := a.engine.Estimate(cmd.Context(), result)
				if err != nil {
					return fmt.Errorf("estimate failed: %w", err)
				}
				report.AddEstimate(result.ProfileID, ests...)
			}
			return a.emit(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&withEstimate, "estimate", false, "include next year's federal and state quarterly estimated payments")
	return cmd
}

func (a *app) estimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate [profile-file]",
		Short: "Calculate next year's federal and state safe-harbor quarterly estimated payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.parser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			result, err := a.engine.Calculate(cmd.Context(), profile)
			if err != nil {
				return fmt.Errorf("calculation failed: %w", err)
			}
			ests, err := a.engine.Estimate(cmd.Context(), result)
			if err != nil {
				return fmt.Errorf("estimate failed: %w", err)
			}
			report := output.NewReport(result)
			report.AddEstimate(result.ProfileID, ests...)
			return a.emit(cmd, report)
		},
	}
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [profile-file]",
		Short: "Validate a profile file without calculating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.parser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			if _, err := a.registry.Book(cmd.Context(), profile.TaxYear, profile.Jurisdictions()...); err != nil {
				return fmt.Errorf("profile %s needs rules that are unavailable: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile file %s is valid\n", args[0])
			return nil
		},
	}
}
