// Package root contains the root command for the application.
package root

import (
	"github.com/spf13/cobra"

	"fjacquet/ledger-import/internal/config"
	"fjacquet/ledger-import/internal/logging"
)

var (
	// Cfg is the loaded application configuration, available to subcommands
	// after PersistentPreRun.
	Cfg *config.Config

	// Log is the shared logger for commands.
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "ledger-import",
		Short: "Import bank and card statements into a canonical transaction ledger.",
		Long: `ledger-import converts heterogeneous vendor statements (CSV, OFX) into a
canonical, deduplicated ledger of financial transactions. Per-institution
format templates drive parsing and normalization; re-importing the same file
is idempotent.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()

			cfg, err := config.Initialize()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = logging.NewLogrusAdapterFromLogger(config.ConfigureLogging(cfg))
			return nil
		},
	}

	// Flags shared across subcommands.
	TemplateFile string
	LedgerFile   string
)

// Init registers the root command's persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVar(&TemplateFile, "templates", "", "Template file (overrides configuration)")
	Cmd.PersistentFlags().StringVar(&LedgerFile, "ledger", "", "Ledger file (overrides configuration)")
}

// TemplatePath resolves the template file, preferring the flag over config.
func TemplatePath() string {
	if TemplateFile != "" {
		return TemplateFile
	}
	return Cfg.Templates.File
}

// LedgerPath resolves the ledger file, preferring the flag over config.
func LedgerPath() string {
	if LedgerFile != "" {
		return LedgerFile
	}
	return Cfg.Ledger.File
}
