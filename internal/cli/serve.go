package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grove-app/grove/internal/daemon"
	"github.com/grove-app/grove/pkg/logger"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the grove engine daemon",
	Long:  `Assemble the engine, restore persisted state and serve the local HTTP API until interrupted.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Optional .env for development overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Config{
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("grove starting",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("addr", cfg.ListenAddr()))
	return d.Run(ctx)
}
