package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/export"
	"github.com/sells-group/inetdash/internal/model"
)

var (
	exportEntity string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered data table as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}
		vm := ds.View(model.Selection{Entity: exportEntity}, cfg.View.ZoomScale)

		if exportOut == "-" {
			return export.Write(cmd.OutOrStdout(), format, vm.Rows)
		}

		path := exportOut
		if path == "" {
			path = format.Filename(vm.Selection)
		}
		if err := writeExportFile(path, format, vm.Rows); err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("path", path),
			zap.String("selection", vm.Selection),
			zap.Int("rows", len(vm.Rows)),
		)
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func writeExportFile(path string, format export.Format, rows []model.JoinedRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "export: close %s", path)
		}
	}()

	return export.Write(f, format, rows)
}

func init() {
	exportCmd.Flags().StringVar(&exportEntity, "entity", model.AllEntities, "entity to select")
	exportCmd.Flags().StringVar(&exportFormat, "format", string(export.FormatCSV), "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOut, "out", "", `output path ("-" for stdout, default derived from the selection)`)
	addFromSnapshotFlag(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
