package http

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/pkg/logs"
)

// NewHTTPCommand groups the server commands. Config is read once and the
// default logger installed before any subcommand runs.
func NewHTTPCommand() *cobra.Command {
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:   "http",
		Short: "HTTP server commands",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}
			if cfg, err = config.ReadConfig(filepath.Dir(cfgPath)); err != nil {
				return err
			}
			slog.SetDefault(logs.New(cfg))
			return nil
		},
	}

	cmd.AddCommand(NewStartCommand(func() *config.Config { return cfg }))

	return cmd
}
