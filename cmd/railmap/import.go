package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"railmap/internal/store"
)

func importCmd() *cobra.Command {
	var sqlitePath string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a map document into a SQLite database",
		Long: `Replace the contents of a SQLite map database with the stations,
connections and routes of a .yaml, .toml or .json document.

  railmap import network.yaml --sqlite railmap.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := store.DecodeDocument(filepath.Ext(args[0]), b)
			if err != nil {
				return err
			}

			db, err := store.OpenSQLite(sqlitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			snap := store.Snapshot{Stations: doc.Stations, Connections: doc.Connections}
			if err := db.Save(cmd.Context(), snap, doc.Routes); err != nil {
				return err
			}
			version, err := db.Version(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s imported %d stations, %d connections and %d routes into %s %s\n",
				statusIcon(true), len(doc.Stations), len(doc.Connections), len(doc.Routes),
				brand.Sprint(sqlitePath), subtle.Sprintf("(revision %s)", version))
			return nil
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", envOr("SQLITE_PATH", "railmap.db"), "SQLite database path")
	return cmd
}
