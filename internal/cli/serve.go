package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/rxflow/internal/gateway"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook gateway server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// The hub must exist before the engine so escalations reach
			// connected operator consoles.
			hub := gateway.NewOperatorHub(log.Sub("operators"))

			eng, err := buildEngine(ctx, log, hub)
			if err != nil {
				return err
			}
			defer eng.close()

			if port != 0 {
				eng.cfg.Gateway.Port = port
			}
			if bind != "" {
				eng.cfg.Gateway.Bind = bind
			}

			srv := gateway.New(eng.cfg.Gateway, eng.orch, log, gateway.WithOperators(hub))
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, auto)")

	return cmd
}
