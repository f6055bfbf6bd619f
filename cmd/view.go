package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/inetdash/internal/model"
)

var viewEntity string

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the view model for one selection as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}

		vm := ds.View(model.Selection{Entity: viewEntity}, cfg.View.ZoomScale)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(vm), "view: encode")
	},
}

func init() {
	viewCmd.Flags().StringVar(&viewEntity, "entity", model.AllEntities, "entity to select")
	addFromSnapshotFlag(viewCmd)
	rootCmd.AddCommand(viewCmd)
}
