package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zeusync/sparrow/internal/injector"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the component registry schema",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "schema output path (default from save_path)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	res, err := a.Export()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen, color.Bold)
	gray := color.New(color.FgHiBlack)
	green.Fprint(out, "exported ")
	fmt.Fprintf(out, "%d types to %s ", res.Types, res.Path)
	gray.Fprintf(out, "(%d bytes, xxh64 %016x)\n", res.Bytes, res.Digest)
	return nil
}
