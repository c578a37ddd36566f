package http

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/consulto_backend/config"
	"github.com/Alijeyrad/consulto_backend/internal/api/http"
)

func NewStartCommand(loaded func() *config.Config) *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API server and the notification worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			http.Start(loaded(), shutdownTimeout)
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for graceful shutdown")

	return cmd
}
