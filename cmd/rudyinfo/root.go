// Package rudyinfo is the CLI front-end ("external collaborator"): a small
// cobra/viper command line that drives the rudy.DebugInfo query API against
// a binary and its debug files, rendering results with fatih/color.
package rudyinfo

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd is the base command for the rudyinfo CLI.
var RootCmd = &cobra.Command{
	Use:   "rudyinfo",
	Short: "Rust-aware DWARF introspection for an unmodified debug binary",
	Long: `rudyinfo drives the rudy debug-info engine against a compiled Rust binary
and its debug files, answering the same questions a symbolic debugger needs:
source locations, type layouts, live variables, and method discovery.

This CLI is an external collaborator of the engine: it is not part of the
core query surface, only a thin driver over it.`,
}

// Execute runs the root command. Called once from main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.rudyinfo.yaml)")
	RootCmd.PersistentFlags().Int("deref-depth", 8, "maximum pointer dereference depth when printing values")
	RootCmd.PersistentFlags().Bool("mmap", true, "not read by the loader, which always memory-maps binaries (and reads them whole on Windows)")
	RootCmd.PersistentFlags().Bool("verbose", false, "print accumulated diagnostics alongside query results")
	_ = viper.BindPFlag("derefDepth", RootCmd.PersistentFlags().Lookup("deref-depth"))
	_ = viper.BindPFlag("mmap", RootCmd.PersistentFlags().Lookup("mmap"))
	_ = viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))

	RootCmd.AddCommand(addr2lineCmd, funcsCmd, typeCmd, varsCmd, methodsCmd)
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rudyinfo")
	}
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
