package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/kinship-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kinship-cli",
	Short: "Genealogy dataset reconciliation",
	Long:  "Matches the people of a GEDCOM file against a scraped family-tree dump, reports exact and fuzzy identities and the individuals found in only one source.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
