package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"meshrpc/pkg/config"
	"meshrpc/pkg/node"
	"meshrpc/pkg/observability"
	"meshrpc/pkg/rpc"
	"meshrpc/pkg/transport"
)

func newRunCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start all configured transports and wait for a signal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := observability.SetupLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			return runNode(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}
}

// runNode starts the node, prints its contacts to out and blocks until a
// signal arrives or ctx is done.
func runNode(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer) error {
	logger.Info("meshrpc-node starting", zap.String("app", cfg.AppName))
	logger.Debug("effective configuration", zap.Any("config", cfg))

	var (
		n   *node.Node
		mgr *rpc.Manager
	)
	app := fx.New(
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Supply(logger),
		node.Module(cfg),
		fx.Populate(&n, &mgr),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	contacts := n.Contacts()
	for _, k := range transport.Kinds() {
		if a, ok := contacts[k]; ok {
			fmt.Fprintf(out, "%s\t%s\n", k, a)
		}
	}
	logger.Info("node is running; press Ctrl+C to exit", zap.Stringer("guard", mgr.Guard()))

	select {
	case sig := <-app.Done():
		logger.Info("shutting down", zap.Stringer("signal", sig))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	return app.Stop(stopCtx)
}
