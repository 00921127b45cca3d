package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wxlab/datimg/internal/config"
	"github.com/wxlab/datimg/internal/imgcrypt"
	"github.com/wxlab/datimg/internal/pathutil"
	"github.com/wxlab/datimg/internal/slogutil"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Decrypt every image in the configured account",
		Long: `Walk the account's attachment tree and decrypt every .dat file
into the output root. Already decrypted files are skipped; per-file
failures are logged and counted without stopping the run.`,
		RunE: runExport,
	}

	exportCmd.Flags().Bool("validate-key", false, "check the configured image key against a sample from the account before exporting")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := slogutil.SetupLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.OutputRoot != "" {
		if err := pathutil.CheckDirectoryWritable(cfg.OutputRoot); err != nil {
			return err
		}
	}

	fsys := afero.NewOsFs()

	if validate, _ := cmd.Flags().GetBool("validate-key"); validate && cfg.AESKey != "" {
		key, err := imgcrypt.ParseAESKey(cfg.AESKey)
		if err != nil {
			return fmt.Errorf("parsing image key: %w", err)
		}
		if v := imgcrypt.NewKeyValidator(fsys, cfg.AccountRoot); v != nil {
			if !v.Validate(key) {
				return fmt.Errorf("image key rejected by sample %s", v.SamplePath())
			}
			logger.Info("image key validated", "sample", v.SamplePath())
		} else {
			logger.Warn("no hybrid sample found, skipping key validation")
		}
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	stats, err := svc.ExportAll(cmd.Context())
	if err != nil {
		return err
	}

	logger.Info("export finished",
		"decrypted", stats.Decrypted,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	fmt.Printf("decrypted %d, skipped %d, failed %d\n", stats.Decrypted, stats.Skipped, stats.Failed)
	return nil
}
