package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List the selectable entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}
		for _, e := range ds.Entities {
			fmt.Fprintln(cmd.OutOrStdout(), e)
		}
		return nil
	},
}

func init() {
	addFromSnapshotFlag(entitiesCmd)
	rootCmd.AddCommand(entitiesCmd)
}
