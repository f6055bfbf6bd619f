package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "inetdash",
	Short: "Internet usage choropleth dashboard",
	Long: `inetdash joins the per-country internet usage series with country
geometry centroids on ISO3 code and renders the result as a choropleth view.

  serve       dashboard page and JSON API (SIGHUP reloads the dataset)
  view        view model for one entity as JSON
  entities    selectable entity names
  centroids   country centroids as JSON or YAML
  export      filtered table as CSV or XLSX
  snapshot    save and list joined datasets in the store

Sources, store and server settings come from config.yaml or INETDASH_*
environment variables.`,
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
