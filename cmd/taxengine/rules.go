package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/output"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/spf13/cobra"
)

func (a *app) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate tax rule sets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available rule sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.registry.ValidateAll(cmd.Context())
			if err != nil {
				return err
			}
			writeKeyResults(cmd.OutOrStdout(), results)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [dir]",
		Short: "Load and validate every rule set, from dir or the configured sources",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := a.registry
			if len(args) == 1 {
				reg = rules.NewRegistry(rules.DirSource(args[0]))
			}
			results, err := reg.ValidateAll(cmd.Context())
			if err != nil {
				return err
			}
			writeKeyResults(cmd.OutOrStdout(), results)
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d rule sets are invalid", failed, len(results))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rule sets are valid\n", len(results))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show [year] [jurisdiction]",
		Short: "Show a compiled rule set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			j, err := domain.ParseJurisdiction(args[1])
			if err != nil {
				return err
			}
			rs, err := a.registry.Get(cmd.Context(), year, j)
			if err != nil {
				return err
			}
			writeRuleSet(cmd.OutOrStdout(), rs)
			return nil
		},
	})
	return cmd
}

func writeKeyResults(w io.Writer, results []rules.KeyResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tJURISDICTION\tVERSION\tSTATUS")
	for _, r := range results {
		status, ver := "ok", ""
		if r.Err != nil {
			status = r.Err.Error()
		} else {
			ver = r.RuleSet.Version
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Key.Year, r.Key.Jurisdiction, ver, status)
	}
	_ = tw.Flush()
}

func writeRuleSet(w io.Writer, rs *rules.RuleSet) {
	fmt.Fprintf(w, "%s %d (version %s)\n", rs.Jurisdiction.Name(), rs.Year, rs.Version)
	if rs.NoIncomeTax {
		fmt.Fprintln(w, "No individual income tax")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, fs := range domain.FilingStatuses() {
		fmt.Fprintf(tw, "\n%s\tstandard deduction %s\n", fs, output.FormatCurrency(rs.StandardDeduction(fs)))
		for _, b := range rs.Brackets(fs) {
			upper := "and up"
			if !b.Unbounded {
				upper = "to " + output.FormatCurrency(b.Upper)
			}
			fmt.Fprintf(tw, "  %s\t%s %s\n", output.FormatRate(b.Rate), output.FormatCurrency(b.Lower), upper)
		}
	}
	_ = tw.Flush()

	if len(rs.Credits) > 0 {
		fmt.Fprintln(w, "\nCredits:")
		for _, c := range rs.Credits {
			kind := "nonrefundable"
			switch {
			case c.Refundable && c.RefundableLimitPerDependent != nil:
				kind = "partially refundable"
			case c.Refundable:
				kind = "refundable"
			}
			per := ""
			if c.PerDependent {
				per = " per dependent"
			}
			fmt.Fprintf(w, "  %s: %s%s, %s\n", c.ID, output.FormatCurrency(c.BaseAmount), per, kind)
		}
	}
	if partners := rs.ReciprocityPartners(); len(partners) > 0 {
		codes := make([]string, len(partners))
		for i, p := range partners {
			codes[i] = string(p)
		}
		fmt.Fprintf(w, "\nReciprocity: %s\n", strings.Join(codes, ", "))
	}
}
