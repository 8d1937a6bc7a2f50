package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"railmap/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect renderer options",
	}
	cmd.AddCommand(configShowCmd(), configCheckCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var (
		path   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective options, defaults included",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), format, cfg)
		},
	}
	cmd.Flags().StringVar(&path, "config", envOr("CONFIG_PATH", ""), "renderer options file")
	cmd.Flags().StringVar(&format, "format", "toml", "output format: toml, yaml or json")
	return cmd
}

func configCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a renderer options file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				fmt.Printf("%s %s\n", statusIcon(false), args[0])
				return err
			}
			if err := cfg.Validate(); err != nil {
				fmt.Printf("%s %s\n", statusIcon(false), args[0])
				warn.Fprintln(os.Stderr, err)
				return fmt.Errorf("%s is invalid", args[0])
			}
			fmt.Printf("%s %s\n", statusIcon(true), args[0])
			return nil
		},
	}
	return cmd
}
