package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tariffdesk/dutycalc/internal/common"
	"github.com/tariffdesk/dutycalc/internal/engine"
	"github.com/tariffdesk/dutycalc/internal/model"
	"github.com/tariffdesk/dutycalc/internal/rules"
)

func calculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate <hts-code>",
		Short: "Calculate import duty for a classification code",
		Long: `Calculate the full duty breakdown for one shipment line: base rate,
additive trade-remedy layers, processing fees, and totals.

Example:
  dutycalc calculate 72011000 --value 25000 --country DE`,
		Args: cobra.ExactArgs(1),
		RunE: runCalculate,
	}

	cmd.Flags().Float64P("value", "v", 0, "declared customs value in USD (required)")
	cmd.Flags().StringP("country", "c", "", "2-letter country of origin (required)")
	cmd.Flags().Bool("exclude-reciprocal", false, "drop reciprocal-family tariff layers")
	cmd.Flags().Bool("usmca-origin", false, "shipment has a valid USMCA certificate of origin")
	cmd.Flags().Bool("json", false, "emit the result as JSON")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("country")

	_ = viper.BindPFlag("calculate.json", cmd.Flags().Lookup("json"))

	return cmd
}

func runCalculate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	value, _ := cmd.Flags().GetFloat64("value")
	country, _ := cmd.Flags().GetString("country")
	excludeReciprocal, _ := cmd.Flags().GetBool("exclude-reciprocal")
	usmcaOrigin, _ := cmd.Flags().GetBool("usmca-origin")

	svc, store, err := buildRefdata()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := engine.New(svc, rules.Default())
	result, err := eng.Calculate(ctx, args[0], value, country, engine.Options{
		ExcludeReciprocalTariff: excludeReciprocal,
		IsUSMCAOrigin:           usmcaOrigin,
	})
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("no tariff data for HTS code %s", args[0]), err)
	}
	if err != nil {
		return err
	}

	if viper.GetBool("calculate.json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(result *model.DutyCalculationResult) {
	fmt.Printf("%s  %s\n\n", result.Code, result.Description)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, c := range result.Components {
		fmt.Fprintf(w, "  %s\t%.2f%%\t$%s\n", c.Label, c.Rate, c.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "  Duty subtotal\t%.2f%%\t$%s\n", result.TotalRate, result.DutyOnly.StringFixed(2))
	fmt.Fprintf(w, "  Merchandise processing fee\t\t$%s\n", result.Fees.MPF.StringFixed(2))
	fmt.Fprintf(w, "  Harbor maintenance fee\t\t$%s\n", result.Fees.HMF.StringFixed(2))
	fmt.Fprintf(w, "  Total\t\t$%s\n", result.Amount.StringFixed(2))
	_ = w.Flush()
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <hts-code>",
		Short: "Show duty with and without reciprocal tariff layers",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompare,
	}

	cmd.Flags().Float64P("value", "v", 0, "declared customs value in USD (required)")
	cmd.Flags().StringP("country", "c", "", "2-letter country of origin (required)")
	cmd.Flags().Bool("usmca-origin", false, "shipment has a valid USMCA certificate of origin")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("country")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	value, _ := cmd.Flags().GetFloat64("value")
	country, _ := cmd.Flags().GetString("country")
	usmcaOrigin, _ := cmd.Flags().GetBool("usmca-origin")

	svc, store, err := buildRefdata()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng := engine.New(svc, rules.Default())
	impact, err := eng.CompareReciprocal(ctx, args[0], value, country, usmcaOrigin)
	if err != nil {
		return err
	}

	fmt.Printf("%s  %s\n\n", impact.With.Code, impact.With.Description)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  With reciprocal tariffs\t%.2f%%\t$%s\n",
		impact.With.TotalRate, impact.With.Amount.StringFixed(2))
	fmt.Fprintf(w, "  Without reciprocal tariffs\t%.2f%%\t$%s\n",
		impact.Without.TotalRate, impact.Without.Amount.StringFixed(2))
	fmt.Fprintf(w, "  Reciprocal impact\t%.2f%%\t$%s\n",
		impact.RateDifference, impact.Difference.StringFixed(2))
	_ = w.Flush()
	return nil
}
