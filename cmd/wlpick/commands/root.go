package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "wlpick",
		Short: "wlpick - Wayland window picker",
		Long: `wlpick enumerates the open windows of a Wayland compositor via the
wlr-foreign-toplevel-management protocol and presents them as selectable,
aligned entries with icons.

Features:
  • Live window set mirrored from the compositor
  • Configurable entry format with column alignment
  • Icon lookup by application id
  • Activate or close windows from the selection`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/wlpick/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("window-format", "", "entry label template, e.g. \"{a:20}  {t}\"")

	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("window-format", rootCmd.PersistentFlags().Lookup("window-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}
