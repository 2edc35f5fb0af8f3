package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/payoutgo/internal/compare"
	"github.com/rgehrsitz/payoutgo/internal/config"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu [input-file]",
	Short: "Compare the lifetime payout against guaranteed and scheduled alternatives",
	Long: `Price the full annuity menu for every quote in a request file.

Examples:
  # Default alternatives: 5, 10 and 15 year guarantees
  payoutgo menu quotes.yaml

  # Custom guarantees and a 60 month schedule of 300 a month
  payoutgo menu quotes.yaml --guarantees 5,10 --schedules 60x300

  # Only the named quote, as CSV
  payoutgo menu quotes.yaml --quote maria --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runMenu,
}

func init() {
	menuCmd.Flags().String("guarantees", "", "Comma-separated guarantee lengths in years (default: 5,10,15)")
	menuCmd.Flags().String("schedules", "", "Comma-separated MONTHSxAMOUNT scheduled installments, e.g. 60x300,120x150")
	menuCmd.Flags().String("quote", "", "Only compare the quote with this name")
	menuCmd.Flags().Bool("available-only", false, "Leave rejected alternatives out of JSON output")
	menuCmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")

	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	parser := config.NewInputParser()
	file, err := parser.LoadFromFile(inputFile)
	if err != nil {
		return err
	}

	guaranteesStr, _ := cmd.Flags().GetString("guarantees")
	schedulesStr, _ := cmd.Flags().GetString("schedules")
	quoteName, _ := cmd.Flags().GetString("quote")
	outputFormat, _ := cmd.Flags().GetString("format")
	availableOnly, _ := cmd.Flags().GetBool("available-only")

	options := compare.DefaultCompareOptions()
	if guaranteesStr != "" || schedulesStr != "" {
		options = compare.CompareOptions{}
		if options.GuaranteeYears, err = compare.ParseGuaranteeList(guaranteesStr); err != nil {
			return err
		}
		if options.Schedules, err = compare.ParseScheduleList(schedulesStr); err != nil {
			return err
		}
	}

	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	compareEngine := compare.NewCompareEngine(engine)

	out := cmd.OutOrStdout()
	compared := 0
	for _, q := range file.Quotes {
		if quoteName != "" && q.Name != quoteName {
			continue
		}
		compared++

		comparisonSet, err := compareEngine.Compare(cmd.Context(), q, options)
		if err != nil {
			fmt.Fprintf(out, "%s: comparison not available: %v\n\n", q.Name, err)
			continue
		}
		comparisonSet.ConfigPath = inputFile

		switch strings.ToLower(outputFormat) {
		case "csv":
			formatter := &compare.CSVFormatter{}
			output, err := formatter.Format(comparisonSet)
			if err != nil {
				return fmt.Errorf("failed to format CSV: %w", err)
			}
			fmt.Fprint(out, output)

		case "json":
			formatter := &compare.JSONFormatter{Pretty: true, OnlyAvailable: availableOnly}
			output, err := formatter.Format(comparisonSet)
			if err != nil {
				return fmt.Errorf("failed to format JSON: %w", err)
			}
			fmt.Fprintln(out, output)

		case "compact":
			formatter := &compare.TableFormatter{}
			fmt.Fprint(out, formatter.FormatCompact(comparisonSet))

		case "table", "console", "":
			formatter := &compare.TableFormatter{}
			fmt.Fprint(out, formatter.Format(comparisonSet))

		default:
			return fmt.Errorf("unknown output format: %s (valid: table, compact, csv, json)", outputFormat)
		}
	}

	if compared == 0 {
		return fmt.Errorf("no quote named %q in %s", quoteName, inputFile)
	}
	return nil
}
