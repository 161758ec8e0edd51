package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	internalApp "github.com/felixgeelhaar/petconnect/internal/app"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the adoption server",
	Long: `Run the adoption server: the HTTP API, the notification history and
the RabbitMQ publisher.

Storage and broker are chosen by configuration (NOTIFICATION_STORE,
RABBITMQ_URL, BROKER_ENABLED). In development an unreachable broker falls
back to an in-process bus.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		cfg := *app.Config
		if serveAddr != "" {
			cfg.HTTPAddr = serveAddr
		}

		ctx := cmd.Context()
		container, err := internalApp.NewContainer(ctx, &cfg, app.Logger)
		if err != nil {
			return err
		}
		defer container.Close()

		errCh := make(chan error, 1)
		go func() { errCh <- container.Server.Start() }()
		fmt.Fprintf(cmd.OutOrStdout(), "PetConnect listening on http://%s\n", container.Server.Addr())

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return container.Server.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
