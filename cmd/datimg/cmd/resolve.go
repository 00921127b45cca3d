package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wxlab/datimg/internal/config"
	"github.com/wxlab/datimg/internal/resolver"
	"github.com/wxlab/datimg/internal/slogutil"
)

func init() {
	resolveCmd := &cobra.Command{
		Use:   "resolve <id>...",
		Short: "Resolve logical image identifiers to decrypted files",
		Long: `Resolve one or more logical image identifiers against the
configured account, decrypting sources on first use. Prints the resolved
path for each identifier.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}

	resolveCmd.Flags().Bool("refresh", false, "rebuild the output index before resolving")

	rootCmd.AddCommand(resolveCmd)
}

func newService(cfg *config.Config) (*resolver.Service, error) {
	return resolver.NewService(afero.NewOsFs(), resolver.Options{
		AccountRoot: cfg.AccountRoot,
		OutputRoot:  cfg.OutputRoot,
		XORKey:      cfg.XORKey,
		AESKey:      cfg.AESKey,
		FolderLabel: cfg.FolderLabel,
		Workers:     cfg.Workers,
	}, slog.Default())
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(slogutil.SetupLogger(cfg.Log))

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		if err := svc.Refresh(); err != nil {
			return fmt.Errorf("refreshing index: %w", err)
		}
	}

	var failed bool
	for _, id := range args {
		path, err := svc.Resolve(id)
		if err != nil {
			failed = true
			fmt.Printf("%s\tERROR: %v\n", id, err)
			continue
		}
		fmt.Printf("%s\t%s\n", id, path)
	}
	if failed {
		return fmt.Errorf("some identifiers did not resolve")
	}
	return nil
}
