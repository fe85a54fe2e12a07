package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"example.com/hotswap/services/recovery/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "recovery-service",
	Short: "Fault management service for the hot-swap runtime",
	Long:  `Records hot-swap lifecycle events, classifies runtime faults and selects risk-gated recovery strategies`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func initConfig() {
	var err error

	if cfgFile != "" {
		// Use config file from the flag
		config.SetConfigFile(cfgFile)
	}

	cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
}
