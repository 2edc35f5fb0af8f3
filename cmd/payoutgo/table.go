package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the life table with commutation values and payout factors",
	RunE: func(cmd *cobra.Command, args []string) error {
		sexStr, _ := cmd.Flags().GetString("sex")
		sex, err := domain.ParseSex(sexStr)
		if err != nil {
			return err
		}

		var rate *float64
		if cmd.Flags().Changed("rate") {
			r, _ := cmd.Flags().GetFloat64("rate")
			rate = &r
		}

		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		rows, err := engine.TableRows(sex, rate)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if rate != nil {
			fmt.Fprintf(out, "%s, %s, technical rate %.2f%%\n", engine.Table.Name(), sex, *rate)
		} else {
			fmt.Fprintf(out, "%s, %s, mortality only (pass --rate for commutation columns)\n", engine.Table.Name(), sex)
		}
		fmt.Fprintf(out, "%4s %10s %10s %8s %12s %14s %14s %9s %9s\n",
			"Age", "qx", "px", "ex", "lx", "Cx", "Dx", "ä", "Per 1000")
		fmt.Fprintln(out, strings.Repeat("-", 100))
		for _, r := range rows {
			fmt.Fprintf(out, "%4d %10s %10s %8s %12.2f %14.4f %14.4f %9.4f %9s\n",
				r.Age, r.Qx.StringFixed(6), r.Px.StringFixed(6), r.Ex.StringFixed(2),
				r.Survivors, r.C, r.D, r.AnnuityDue, r.PerThousand.StringFixed(2))
		}
		return nil
	},
}

var retirementAgeCmd = &cobra.Command{
	Use:   "retirement-age",
	Short: "Show the statutory retirement age and required service for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		sexStr, _ := cmd.Flags().GetString("sex")
		sex, err := domain.ParseSex(sexStr)
		if err != nil {
			return err
		}
		on, err := dateFlag(cmd)
		if err != nil {
			return err
		}

		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		age, ok := engine.StatutoryRetirementAge(sex, on)
		if !ok {
			return fmt.Errorf("%w: no retirement age rule for %d", domain.ErrInvalidInput, on.Year())
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Retirement age (%s, %s): %s (%.2f years)\n", sex, on.Format(dateLayout), age, age.Fractional())
		if service, ok := engine.RequiredService(sex, on.Year()); ok {
			fmt.Fprintf(out, "Required service: %s years\n", service.StringFixed(2))
		}
		return nil
	},
}

var minimumPensionCmd = &cobra.Command{
	Use:   "minimum-pension",
	Short: "Show the minimum pension and the regime thresholds for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := dateFlag(cmd)
		if err != nil {
			return err
		}
		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}

		amount, err := engine.Regulatory.MinimumPensionOn(on)
		if err != nil {
			return err
		}
		t := engine.Regulatory.Eligibility

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Minimum pension on %s: %s\n", on.Format(dateLayout), amount.StringFixed(2))
		fmt.Fprintf(out, "Installment lower bound: %s\n", amount.Mul(t.SmallFundRatio).StringFixed(2))
		fmt.Fprintf(out, "Lump-sum principal threshold: %s\n", amount.Mul(t.LumpSumMultiple).StringFixed(2))
		return nil
	},
}

// dateFlag reads --date, defaulting to today.
func dateFlag(cmd *cobra.Command) (time.Time, error) {
	s, _ := cmd.Flags().GetString("date")
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewFieldError("date", fmt.Sprintf("must be YYYY-MM-DD, got %q", s), domain.ErrInvalidInput)
	}
	return t, nil
}

func init() {
	tableCmd.Flags().String("sex", "female", "Mortality column (male, female)")
	tableCmd.Flags().Float64("rate", 0, "Technical interest rate in percent; adds the commutation columns")

	retirementAgeCmd.Flags().String("sex", "female", "Sex (male, female)")
	retirementAgeCmd.Flags().String("date", "", "Retirement date, YYYY-MM-DD (default: today)")

	minimumPensionCmd.Flags().String("date", "", "Valuation date, YYYY-MM-DD (default: today)")

	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(retirementAgeCmd)
	rootCmd.AddCommand(minimumPensionCmd)
}
