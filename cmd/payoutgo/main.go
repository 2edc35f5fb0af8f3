package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rgehrsitz/payoutgo/internal/calculation"
	"github.com/rgehrsitz/payoutgo/internal/config"
	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/rgehrsitz/payoutgo/internal/mortality"
	"github.com/rgehrsitz/payoutgo/internal/output"
	"github.com/spf13/cobra"
)

// slogLogger implements calculation.Logger on top of log/slog
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debugf(format string, args ...any) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s slogLogger) Infof(format string, args ...any)  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s slogLogger) Warnf(format string, args ...any)  { s.l.Warn(fmt.Sprintf(format, args...)) }
func (s slogLogger) Errorf(format string, args ...any) { s.l.Error(fmt.Sprintf(format, args...)) }

func newLogger(w io.Writer, debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultRegulatoryFile is picked up from the working directory when --regulatory-config is not given.
const defaultRegulatoryFile = "regulatory.yaml"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "payoutgo %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

var rootCmd = &cobra.Command{
	Use:   "payoutgo",
	Short: "Pension annuity payout calculator CLI",
	Long: `Prices the monthly payout of a supplementary pension fund from a national life table:
lifetime annuities, guaranteed periods and scheduled installments, with the
lump-sum / installment / full annuity regime decided from the minimum pension.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadEngine builds a calculation engine from the global flags.
func loadEngine(cmd *cobra.Command) (*calculation.CalculationEngine, error) {
	regulatoryFile, _ := cmd.Flags().GetString("regulatory-config")
	lifeTableFile, _ := cmd.Flags().GetString("life-table")
	debugMode, _ := cmd.Flags().GetBool("debug")

	if regulatoryFile == "" && fileExists(defaultRegulatoryFile) {
		regulatoryFile = defaultRegulatoryFile
	}
	reg, err := config.LoadRegulatory(regulatoryFile)
	if err != nil {
		return nil, err
	}

	var table *mortality.LifeTable
	if lifeTableFile != "" {
		table, err = mortality.LoadFile(lifeTableFile)
	} else {
		table, err = mortality.Default()
	}
	if err != nil {
		return nil, err
	}

	engine := calculation.NewCalculationEngine(table, reg)
	engine.SetLogger(slogLogger{l: newLogger(cmd.ErrOrStderr(), debugMode)})
	engine.Debug = debugMode
	if debugMode {
		source := regulatoryFile
		if source == "" {
			source = "embedded default"
		}
		engine.Logger.Debugf("life table %q, regulatory config %s", table.Name(), source)
	}
	return engine, nil
}

var calculateCmd = &cobra.Command{
	Use:   "calculate [input-file]",
	Short: "Price every quote in a request file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		parser := config.NewInputParser()
		file, err := parser.LoadFromFile(inputFile)
		if err != nil {
			return err
		}

		outputFormat, _ := cmd.Flags().GetString("format")
		formatter := output.GetFormatterByName(outputFormat)
		if formatter == nil {
			return fmt.Errorf("unknown output format %q (valid: %s; aliases: %s)", outputFormat,
				strings.Join(output.AvailableFormatterNames(), ", "), strings.Join(output.AvailableFormatAliases(), ", "))
		}

		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}

		report, err := engine.RunQuotes(cmd.Context(), file.Quotes)
		if err != nil {
			return err
		}
		report.Source = inputFile

		if save, _ := cmd.Flags().GetBool("save"); save {
			filename, err := output.WriteFormatted(formatter, report, extensionFor(formatter.Name()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", filename)
			return nil
		}

		data, err := formatter.Format(report)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func extensionFor(formatterName string) string {
	switch formatterName {
	case "csv", "json", "html":
		return formatterName
	}
	return "txt"
}

var validateCmd = &cobra.Command{
	Use:   "validate [input-file]",
	Short: "Validate a request file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		parser := config.NewInputParser()
		file, err := parser.LoadFromFile(inputFile)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Request file %s is valid (%d quotes)\n", inputFile, len(file.Quotes))
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify [input-file]",
	Short: "Show the payout regime of every quote in a request file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parser := config.NewInputParser()
		file, err := parser.LoadFromFile(args[0])
		if err != nil {
			return err
		}

		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s %12s %12s %12s  %s\n", "Quote", "Principal", "Plain", "Min pension", "Regime")
		fmt.Fprintln(out, strings.Repeat("-", 80))
		for _, q := range file.Quotes {
			cls, err := engine.Classify(cmd.Context(), q)
			if err != nil {
				fmt.Fprintf(out, "%-16s %12s %12s %12s  REJECTED %s: %v\n",
					q.Name, q.Principal.StringFixed(2), "-", "-", domain.ReasonCodeOf(err), err)
				continue
			}
			line := fmt.Sprintf("%-16s %12s %12s %12s  %s", q.Name, q.Principal.StringFixed(2),
				cls.PlainMonthly.StringFixed(2), cls.MinimumPension.StringFixed(2), cls.Regime)
			if cls.InstallmentBounds != nil {
				line += fmt.Sprintf(" [%s, %s]", cls.InstallmentBounds.Min.StringFixed(2), cls.InstallmentBounds.Max.StringFixed(2))
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("regulatory-config", "", "Path to regulatory config file (default: regulatory.yaml if it exists, else the embedded data)")
	rootCmd.PersistentFlags().String("life-table", "", "Path to a life table YAML file (default: embedded national table)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output for detailed calculations")

	calculateCmd.Flags().StringP("format", "f", "console", "Output format (console, console-lite, csv, json, html)")
	calculateCmd.Flags().Bool("save", false, "Write the report to a timestamped file instead of stdout")

	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
