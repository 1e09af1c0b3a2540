// Package templates provides subcommands for inspecting and validating the
// registered format templates.
package templates

import (
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/ledger-import/cmd/root"
	"fjacquet/ledger-import/internal/template"
)

// Cmd represents the templates command group.
var Cmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect registered format templates",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the templates in the configured template file",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := template.NewRegistry()
		if _, err := template.LoadFile(root.TemplatePath(), registry, root.Log); err != nil {
			return err
		}

		for desc := range registry.List() {
			fmt.Printf("%-24s %-6s %-12s %s\n", desc.ID, desc.Kind, desc.ValueFormat, desc.Institution)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configured template file",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := template.NewRegistry()
		count, err := template.LoadFile(root.TemplatePath(), registry, root.Log)
		if err != nil {
			return err
		}
		fmt.Printf("%d template(s) valid\n", count)
		return nil
	},
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(validateCmd)
}
