package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/inetdash/internal/geo"
	"github.com/sells-group/inetdash/internal/model"
)

var centroidsFormat string

var centroidsCmd = &cobra.Command{
	Use:   "centroids",
	Short: "Print the country centroid table extracted from the geometry source",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("load"); err != nil {
			return err
		}
		centroids, err := geo.LoadCentroids(cmd.Context(), newSourceOpener(), cfg.Data.GeometrySource)
		if err != nil {
			return err
		}
		return writeCentroids(cmd.OutOrStdout(), centroidsFormat, centroids)
	},
}

func writeCentroids(w io.Writer, format string, centroids []model.CountryCentroid) error {
	if centroids == nil {
		centroids = []model.CountryCentroid{}
	}
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(centroids), "centroids: encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(centroids); err != nil {
			return eris.Wrap(err, "centroids: encode yaml")
		}
		return eris.Wrap(enc.Close(), "centroids: close yaml encoder")
	default:
		return eris.Errorf("centroids: unsupported format %q (want json or yaml)", format)
	}
}

func init() {
	centroidsCmd.Flags().StringVar(&centroidsFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(centroidsCmd)
}
