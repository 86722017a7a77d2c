package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var draftOverrides []string

var draftCmd = &cobra.Command{
	Use:   "draft <project>",
	Short: "Generate the draft request form PDF",
	Long: `Resolves every template field from the project's reviewed data and
renders the request form. Regenerating a draft invalidates any signed or
assembled artifact built from the previous one. Field overrides take the
form --set field.id=value.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := make(map[string]string, len(draftOverrides))
		for _, kv := range draftOverrides {
			key, value, found := strings.Cut(kv, "=")
			if !found || key == "" {
				cmd.PrintErrf("ignoring malformed --set %q\n", kv)
				continue
			}
			overrides[key] = value
		}
		path, err := current.orch.GenerateDraft(cmd.Context(), args[0], overrides)
		if err != nil {
			return err
		}
		cmd.Printf("Draft written to %s\n", path)
		return nil
	},
}

var signedCmd = &cobra.Command{
	Use:   "signed <project> <signed-scan.pdf>",
	Short: "Attach the signed scan replacing the draft",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := current.orch.AttachSigned(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		cmd.Printf("Signed form stored at %s\n", path)
		return nil
	},
}

var assembleCmd = &cobra.Command{
	Use:   "assemble <project>",
	Short: "Concatenate the form and all source PDFs into the final package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := current.orch.AssembleFinal(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Package written to %s\n", result.PackagePath)
		for _, path := range result.Skipped {
			cmd.PrintErrf("warning: source missing on disk, skipped: %s\n", path)
		}
		return nil
	},
}

func init() {
	draftCmd.Flags().StringArrayVar(&draftOverrides, "set", nil,
		"field override as field.id=value (repeatable)")
	rootCmd.AddCommand(draftCmd, signedCmd, assembleCmd)
}
