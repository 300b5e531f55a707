package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rgehrsitz/taxengine/internal/compare"
	"github.com/rgehrsitz/taxengine/internal/domain"
	"github.com/rgehrsitz/taxengine/internal/output"
	"github.com/rgehrsitz/taxengine/internal/transform"
	"github.com/rgehrsitz/taxengine/internal/tui"
	"github.com/spf13/cobra"
)

func (a *app) compareCmd() *cobra.Command {
	var (
		templates     []string
		transforms    []string
		baseName      string
		listTemplates bool
		interactive   bool
	)
	cmd := &cobra.Command{
		Use:   "compare [profile-file]",
		Short: "Compare a profile against what-if alternatives",
		Long: `Calculate a profile as filed and once per alternative, then show the change in
federal, state and total tax. Alternatives are built-in templates (--template) or
transform specs (--transform name:key=value,...), for example:

  taxengine compare profile.yaml --template file_separately \
    --transform relocate:to=TX,move_work=true \
    --transform set_deduction:method=itemized,amount=30000

Available transforms: ` + strings.Join(transform.NewTransformRegistry().List(), ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ce := compare.NewCompareEngine(a.engine)
			if listTemplates {
				fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(ce.TemplateRegistry))
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("compare requires a profile file")
			}
			profile, err := a.parser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			opts := compare.CompareOptions{
				BaseScenarioName: baseName,
				Templates:        templates,
				Transforms:       transforms,
			}
			if interactive {
				return runInteractiveCompare(cmd, ce, profile, opts, a.settings.Output.Format, args[0])
			}
			set, err := ce.Compare(cmd.Context(), profile, opts)
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}
			set.ProfilePath = args[0]
			return writeComparison(cmd, a.settings.Output.Format, set)
		},
	}
	cmd.Flags().StringSliceVarP(&templates, "template", "t", nil, "built-in template to compare (repeatable or comma-separated)")
	cmd.Flags().StringArrayVar(&transforms, "transform", nil, "transform spec name:key=value,... (repeatable)")
	cmd.Flags().StringVar(&baseName, "base-name", "", "display name for the unmodified profile")
	cmd.Flags().BoolVar(&listTemplates, "list-templates", false, "list built-in templates and exit")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick alternatives in a terminal UI; --template and --transform start selected")
	return cmd
}

// runInteractiveCompare runs the picker and writes the last comparison it produced, if any.
func runInteractiveCompare(cmd *cobra.Command, ce *compare.CompareEngine, profile *domain.TaxpayerProfile, opts compare.CompareOptions, format, path string) error {
	model := tui.NewCompareModel(cmd.Context(), ce, profile, opts)
	p := tea.NewProgram(model,
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.ErrOrStderr()),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive compare failed: %w", err)
	}
	set := model.Result()
	if set == nil {
		return nil
	}
	set.ProfilePath = path
	return writeComparison(cmd, format, set)
}

// writeComparison renders json and csv as such and everything else as the console table.
func writeComparison(cmd *cobra.Command, format string, set *compare.ComparisonSet) error {
	var (
		out string
		err error
	)
	switch output.NormalizeFormatName(format) {
	case "json":
		out, err = (&compare.JSONFormatter{Pretty: true}).Format(set)
	case "csv":
		out, err = (&compare.CSVFormatter{}).Format(set)
	case "console-lite":
		out = (&compare.TableFormatter{}).FormatCompact(set) + "\n"
	default:
		out = (&compare.TableFormatter{}).Format(set)
	}
	if err != nil {
		return fmt.Errorf("failed to format comparison: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
