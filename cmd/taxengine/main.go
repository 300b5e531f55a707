package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rgehrsitz/taxengine/internal/calculation"
	"github.com/rgehrsitz/taxengine/internal/config"
	"github.com/rgehrsitz/taxengine/internal/output"
	"github.com/rgehrsitz/taxengine/internal/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds what every command shares once settings are resolved.
type app struct {
	cfgFile   string
	envFile   string
	outputDir string
	v         *viper.Viper

	settings *config.Settings
	logger   *zap.Logger
	registry *rules.Registry
	engine   *calculation.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "taxengine",
		Short: "Federal and multi-state tax liability calculator",
		Long: `taxengine computes federal and state income tax liability for a taxpayer profile:
AGI, deductions, bracket tax, credits, payroll taxes, multi-state apportionment with
reciprocity and resident credits, and the resulting refund or balance due.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "settings file (default: ./taxengine.yaml or $HOME/.config/taxengine/taxengine.yaml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.String("rules-dir", "", "directory of <year>/<jurisdiction>.yaml rule sets consulted before the built-in tables")
	pf.StringP("format", "f", "", "output format ("+joinNames()+")")
	pf.StringVar(&a.outputDir, "output-dir", "", "write the report to a timestamped file in this directory instead of stdout")
	pf.Int("tax-year", 0, "tax year for profiles that do not set one")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")

	_ = a.v.BindPFlag("rules.dir", pf.Lookup("rules-dir"))
	_ = a.v.BindPFlag("output.format", pf.Lookup("format"))
	_ = a.v.BindPFlag("tax_year", pf.Lookup("tax-year"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))

	root.AddCommand(a.calculateCmd())
	root.AddCommand(a.batchCmd())
	root.AddCommand(a.estimateCmd())
	root.AddCommand(a.validateCmd())
	root.AddCommand(a.compareCmd())
	root.AddCommand(a.rulesCmd())
	root.AddCommand(versionCmd())
	return root
}

// init resolves settings, the logger and the engine before any command runs.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	s, err := config.LoadSettings(a.v, a.cfgFile, a.envFile)
	if err != nil {
		return err
	}
	if output.GetFormatterByName(s.Output.Format) == nil {
		return fmt.Errorf("unsupported format: %s (available: %s)", s.Output.Format, joinNames())
	}
	a.settings = s

	logger, err := newLogger(s.Log, zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logger = logger

	var source rules.Source = rules.EmbeddedSource()
	if s.Rules.Dir != "" {
		source = rules.ChainSource{rules.DirSource(s.Rules.Dir), rules.EmbeddedSource()}
	}
	a.registry = rules.NewRegistry(source)
	a.engine = calculation.NewEngine(a.registry)
	a.engine.SetLogger(zapLogger{s: logger.Sugar()})
	logger.Debug("settings resolved",
		zap.String("rules_dir", s.Rules.Dir),
		zap.String("format", s.Output.Format),
		zap.Int("workers", s.Batch.Workers))
	return nil
}

func (a *app) parser() *config.InputParser {
	p := config.NewInputParser()
	p.DefaultTaxYear = a.settings.TaxYear
	return p
}

// emit renders report in the configured format to stdout or to a file in --output-dir.
func (a *app) emit(cmd *cobra.Command, report *output.Report) error {
	f := output.GetFormatterByName(a.settings.Output.Format)
	if a.outputDir == "" {
		return output.Write(cmd.OutOrStdout(), f, report)
	}
	filename, err := output.WriteFormatted(f, report, a.outputDir, output.Extension(f))
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", filename)
	return nil
}

func joinNames() string {
	return strings.Join(output.AvailableFormatterNames(), ", ")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxengine %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
