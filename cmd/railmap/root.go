package main

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "railmap",
		Short: "railmap renders interactive transit maps",
		Long: brand.Sprint("railmap") + " serves and renders transit maps from Postgres, SQLite or data files\n" +
			subtle.Sprint("Stations, coloured lines and highlighted routes"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("railmap {{ .Version }}\n")

	cmd.AddCommand(
		serveCmd(),
		renderCmd(),
		configCmd(),
		importCmd(),
	)
	return cmd
}
