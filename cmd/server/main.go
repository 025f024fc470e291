package main

import (
	"fmt"
	"os"

	"github.com/JustJay7/chamber-desk/internal/config"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/spf13/cobra"
)

// rootCmd runs the server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "chamber-desk",
	Short: "Practice desk for an advocate's chamber",
	Long: `Chamber Desk keeps the case register, hearing board, IPC to BNS bridge,
fee memos, research log and documents of a single chamber, and looks up
case status on e-Courts by CNR.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(hashKeyCmd)
	rootCmd.AddCommand(bnsCmd)

	bnsCmd.Flags().BoolVarP(&bnsReverse, "reverse", "r", false, "Treat the section as BNS and find its IPC predecessor")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}
