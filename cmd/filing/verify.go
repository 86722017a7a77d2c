package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
)

var overrideReason string

var verifyCmd = &cobra.Command{
	Use:   "verify <project> [criterion-id]",
	Short: "Evaluate the rule database, or re-evaluate one criterion",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 2 {
			r, err := current.orch.EvaluateOne(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			cmd.Printf("%s  %s\n  %s\n", r.CriterionID, r.Status, r.Justification)
			return nil
		}

		results, summary, err := current.orch.EvaluateAll(ctx, args[0])
		if err != nil {
			return err
		}
		for _, r := range results {
			marker := " "
			if r.Overridden() {
				marker = "*"
			}
			cmd.Printf("%s %-14s %-16s %s\n", marker, r.CriterionID, r.Status, r.Title)
		}
		cmd.Println("Verification:", summary.String())
		return nil
	},
}

var overrideCmd = &cobra.Command{
	Use:   "override <project> <criterion-id> <status>",
	Short: "Replace an automatic verdict with a human decision",
	Long: `Sets the criterion's status and justification by hand. The
override is timestamped and survives later full verification runs until
the same criterion is explicitly re-evaluated.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := constants.ConformityStatus(strings.ToUpper(args[2]))
		if !status.IsValid() {
			return common.NewAppError("BAD_STATUS",
				"status must be one of "+strings.Join(constants.StatusValues(), ", "),
				common.ErrInvalidInput)
		}
		if strings.TrimSpace(overrideReason) == "" {
			return common.NewAppError("NO_REASON",
				"an override requires a --reason", common.ErrInvalidInput)
		}
		if err := current.orch.Override(cmd.Context(), args[0], args[1], status, overrideReason); err != nil {
			return err
		}
		cmd.Printf("Criterion %s overridden to %s.\n", args[1], status)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <project> <output.xlsx>",
	Short: "Write the verification report workbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.orch.WriteVerificationReport(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		cmd.Printf("Report written to %s\n", args[1])
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check AI connectivity with the configured key and model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.orch.ProbeAI(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("AI capability reachable.")
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Swap the AI API key, keeping the old one if the probe fails",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := current.client
		err := common.SwapWithProbe(cmd.Context(), "api key",
			client.APIKey(), args[0],
			func(k string) error { client.SetAPIKey(k); return nil },
			current.orch.ProbeAI,
			current.logger)
		if err != nil {
			return err
		}
		cmd.Println("API key accepted by the probe.")
		return nil
	},
}

func init() {
	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "justification for the override")
	rootCmd.AddCommand(verifyCmd, overrideCmd, reportCmd, probeCmd, setKeyCmd)
}
