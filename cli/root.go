// Package cli - команды администрирования и запуска сервера
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sisterhood-backend/config"
	"sisterhood-backend/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "sisterhood",
	Short: "Sisterhood backend: counseling, chat, feed and community API",
	Long: `Sisterhood backend serves the counseling booking API, the support chat,
the anonymous feed with stories and the community groups.
Without a subcommand it prints this help.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			return os.Setenv("CONFIG_FILE", configFile)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute запускает корневую команду; вызывается из main
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config overlay (same as CONFIG_FILE)")
}

// loadConfig - конфигурация и логгер для любой подкоманды
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)
	return cfg, nil
}
