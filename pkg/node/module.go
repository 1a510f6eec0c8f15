package node

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"meshrpc/pkg/config"
	"meshrpc/pkg/rpc"
)

// Module provides the Node and the rpc.Manager for cfg and ties their
// start and stop to the fx lifecycle.
func Module(cfg *config.Config, opts ...rpc.Option) fx.Option {
	return fx.Module("node",
		fx.Supply(cfg),
		fx.Provide(func(c *config.Config, log *zap.Logger) (*Node, error) {
			return New(c, log, opts...)
		}),
		fx.Provide(func(n *Node) *rpc.Manager { return n.Manager() }),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, n *Node) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return n.Start(ctx) },
		OnStop:  func(ctx context.Context) error { return n.Stop(ctx) },
	})
}
