package main

import (
	"github.com/spf13/cobra"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage filing projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := current.orch.CreateProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Project %q created with categories: ", p.Name)
		for i, cat := range constants.AllCategories() {
			if i > 0 {
				cmd.Print(", ")
			}
			cmd.Print(string(cat))
		}
		cmd.Println()
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a project and all its stored state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.orch.DeleteProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Project %q deleted.\n", args[0])
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := current.orch.ListProjects(cmd.Context())
		if err != nil {
			return err
		}
		if len(names) == 0 {
			cmd.Println("No projects.")
			return nil
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var projectStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show readiness, pending information and export stage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		readiness, err := current.orch.ValidateReadiness(ctx, args[0])
		if err != nil {
			return err
		}
		cmd.Printf("Export stage: %s\n", readiness.Stage)
		cmd.Printf("Criteria: %d/%d conforming\n", readiness.Conforming, readiness.Criteria)
		for _, cr := range readiness.Categories {
			cmd.Printf("  %-14s files=%d extracted=%v reviewed=%v\n",
				cr.Category, cr.Files, cr.Extracted, cr.Reviewed)
		}
		if readiness.Ready() {
			cmd.Println("Ready for export.")
		} else {
			cmd.Println("Blockers:")
			for _, b := range readiness.Blockers {
				cmd.Println("  -", b)
			}
		}

		pending, err := current.orch.PendingInformation(ctx, args[0])
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			cmd.Println("Pending information:")
			for cat, fields := range pending {
				for _, f := range fields {
					cmd.Printf("  %s.%s\n", cat, f)
				}
			}
		}
		return nil
	},
}

var fileAddCmd = &cobra.Command{
	Use:   "add <project> <category> <path>...",
	Short: "Register source files into a project category",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, ok := constants.Canonicalize(args[1])
		if !ok {
			return common.NewAppError("BAD_CATEGORY",
				"unknown category "+args[1], common.ErrInvalidInput)
		}
		for _, path := range args[2:] {
			ref, err := current.orch.AddFile(cmd.Context(), args[0], cat, path)
			if err != nil {
				return err
			}
			cmd.Printf("Added %s to %s (%s)\n", ref.Path, cat, ref.ID)
		}
		return nil
	},
}

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage project source files",
}

func init() {
	projectCmd.AddCommand(projectCreateCmd, projectDeleteCmd, projectListCmd, projectStatusCmd)
	fileCmd.AddCommand(fileAddCmd)
	rootCmd.AddCommand(projectCmd, fileCmd)
}
