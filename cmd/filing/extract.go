package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
)

var extractForce bool

var extractCmd = &cobra.Command{
	Use:   "extract <project> [category]",
	Short: "Run AI extraction for one category, or all categories with files",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 1 {
			summary, err := current.orch.RunExtractionAll(ctx, args[0], extractForce)
			if err != nil {
				return err
			}
			cmd.Println("Extraction:", summary.String())
			return nil
		}

		cat, ok := constants.Canonicalize(args[1])
		if !ok {
			return common.NewAppError("BAD_CATEGORY", "unknown category "+args[1], common.ErrInvalidInput)
		}
		ex, err := current.orch.RunExtraction(ctx, args[0], cat, extractForce)
		if err != nil {
			return err
		}
		cmd.Printf("Extracted %d content fields for %s.\n", len(ex.ContentFields), cat)
		cmd.Println("--- consolidated text ---")
		cmd.Println(ex.ConsolidatedText)
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <project> <category> <text-file>",
	Short: "Save the human-reviewed consolidated text for a category",
	Long: `Stores the edited consolidated text and marks the category as
reviewed. The reviewed text becomes the source of truth for verification
and export. Pass "-" to read the text from stdin.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, ok := constants.Canonicalize(args[1])
		if !ok {
			return common.NewAppError("BAD_CATEGORY", "unknown category "+args[1], common.ErrInvalidInput)
		}
		var text []byte
		var err error
		if args[2] == "-" {
			text, err = os.ReadFile("/dev/stdin")
		} else {
			text, err = os.ReadFile(args[2])
		}
		if err != nil {
			return fmt.Errorf("read reviewed text: %w", err)
		}
		if err := current.orch.SaveEditedText(cmd.Context(), args[0], cat, string(text)); err != nil {
			return err
		}
		cmd.Printf("Reviewed text saved for %s.\n", cat)
		return nil
	},
}

var secondaryCmd = &cobra.Command{
	Use:   "extract-fields <project> <category>",
	Short: "Re-extract the focused field set from reviewed text",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, ok := constants.Canonicalize(args[1])
		if !ok {
			return common.NewAppError("BAD_CATEGORY", "unknown category "+args[1], common.ErrInvalidInput)
		}
		fields, err := current.orch.RunSecondaryExtraction(cmd.Context(), args[0], cat)
		if err != nil {
			return err
		}
		for name, value := range fields {
			if value == nil {
				cmd.Printf("%s: (not found)\n", name)
				continue
			}
			cmd.Printf("%s: %s\n", name, strings.TrimSpace(*value))
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&extractForce, "force", false,
		"regenerate even if the category was already reviewed")
	rootCmd.AddCommand(extractCmd, reviewCmd, secondaryCmd)
}
