package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wxlab/datimg/internal/api"
	"github.com/wxlab/datimg/internal/config"
	"github.com/wxlab/datimg/internal/pathutil"
	"github.com/wxlab/datimg/internal/slogutil"
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve decrypted images over HTTP",
		Long: `Start the media endpoint. A viewer frontend requests
GET /api/image/{id} and receives the decrypted image, decrypting the
source blob on first request.`,
		RunE: runServe,
	}

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		slog.Default().Error("failed to load config", "err", err)
		return err
	}

	if err := pathutil.CheckFileDirectoryWritable(cfg.Log.File, "log"); err != nil {
		return err
	}

	logger := slogutil.SetupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting media server",
		"port", cfg.Serve.Port,
		"account_root", cfg.AccountRoot,
		"output_root", cfg.OutputRoot,
		"log_file", cfg.Log.File,
		"log_level", cfg.Log.Level)

	fsys := afero.NewOsFs()
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	server := api.NewServer(fsys, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.Serve.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		if err := server.Shutdown(); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
