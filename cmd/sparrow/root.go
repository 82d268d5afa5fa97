package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zeusync/sparrow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "sparrow",
	Short:         "Metadata driven component injection",
	Long:          "Sparrow turns metadata authored on imported scene nodes into typed components and exports the component registry for authoring tools.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default .sparrow.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, silent)")

	rootCmd.AddCommand(exportCmd, injectCmd, serveCmd)
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"log-level": "log_level",
	"out":       "save_path",
	"addr":      "server.addr",
	"strict":    "strict_extended",
	"flatten":   "flatten_scenes",
}

// loadConfig reads the config file and environment, then applies the flags
// the user actually set on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	v := config.New(file)

	var err error
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && err == nil {
			err = v.BindPFlag(key, f)
		}
	})
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(v)
}
