package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/payoutgo/internal/breakeven"
	"github.com/rgehrsitz/payoutgo/internal/config"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve [input-file]",
	Short: "Solve for the installment, guarantee or principal that meets a target",
	Long: `Search one payout parameter for every quote in a request file.

Targets:
  max_installment  largest installment the principal can fund for --months
  guarantee_years  longest guarantee that still pays --target-monthly
  principal        smallest principal that pays --target-monthly
                   (without a target: where the full annuity menu starts)
  all              every target the flags allow

Examples:
  payoutgo solve quotes.yaml --target max_installment --months 60
  payoutgo solve quotes.yaml --target guarantee_years --target-monthly 130
  payoutgo solve quotes.yaml --target all --months 120 --target-monthly 150 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().String("target", string(breakeven.TargetAll), "What to solve for (max_installment, guarantee_years, principal, all)")
	solveCmd.Flags().Int("months", 60, "Installment schedule length for max_installment")
	solveCmd.Flags().String("target-monthly", "", "Monthly payout to reach")
	solveCmd.Flags().Int("max-guarantee-years", 40, "Upper bound for guarantee_years")
	solveCmd.Flags().String("max-principal", "", "Upper bound for principal")
	solveCmd.Flags().String("quote", "", "Only solve the quote with this name")
	solveCmd.Flags().StringP("format", "f", "table", "Output format (table, json)")

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	inputFile := args[0]

	targetStr, _ := cmd.Flags().GetString("target")
	target, err := breakeven.ParseTarget(targetStr)
	if err != nil {
		return err
	}

	constraints := breakeven.DefaultConstraints()
	constraints.Months, _ = cmd.Flags().GetInt("months")
	constraints.MaxGuaranteeYears, _ = cmd.Flags().GetInt("max-guarantee-years")
	if constraints.TargetMonthly, err = decimalFlag(cmd, "target-monthly"); err != nil {
		return err
	}
	if constraints.MaxPrincipal, err = decimalFlag(cmd, "max-principal"); err != nil {
		return err
	}

	quoteName, _ := cmd.Flags().GetString("quote")
	outputFormat, _ := cmd.Flags().GetString("format")
	format := strings.ToLower(outputFormat)
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown output format: %s (valid: table, json)", outputFormat)
	}

	parser := config.NewInputParser()
	file, err := parser.LoadFromFile(inputFile)
	if err != nil {
		return err
	}

	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	solver := breakeven.NewDefaultSolver(engine)

	tableFormatter := &breakeven.TableFormatter{}
	jsonFormatter := &breakeven.JSONFormatter{Pretty: true}
	out := cmd.OutOrStdout()
	solved := 0

	for _, q := range file.Quotes {
		if quoteName != "" && q.Name != quoteName {
			continue
		}
		solved++
		fmt.Fprintf(out, "QUOTE: %s\n", q.Name)

		if target == breakeven.TargetAll {
			result, err := solver.OptimizeAllTargets(cmd.Context(), q, constraints)
			if err != nil {
				fmt.Fprintf(out, "  not solvable: %v\n\n", err)
				continue
			}
			if format == "json" {
				s, err := jsonFormatter.FormatMultiDimensional(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			} else {
				fmt.Fprint(out, tableFormatter.FormatMultiDimensional(result))
			}
			continue
		}

		result, err := solver.Optimize(cmd.Context(), breakeven.OptimizationRequest{
			Base:        q,
			Target:      target,
			Constraints: constraints,
		})
		if err != nil {
			fmt.Fprintf(out, "  not solvable: %v\n\n", err)
			continue
		}
		if format == "json" {
			s, err := jsonFormatter.Format(result)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s)
		} else {
			fmt.Fprint(out, tableFormatter.Format(result))
		}
	}

	if solved == 0 {
		return fmt.Errorf("no quote named %q in %s", quoteName, inputFile)
	}
	return nil
}

func decimalFlag(cmd *cobra.Command, name string) (*decimal.Decimal, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", name, s, err)
	}
	return &d, nil
}
