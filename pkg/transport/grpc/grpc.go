package grpc

import (
	"context"
	"net"
	"sync"

	grpcgo "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"meshrpc/pkg/transport"
)

// DefaultHint is bound when the caller gives no contact hint.
const DefaultHint = "127.0.0.1:0"

// Backend serves a gRPC server with the standard health service. Callers
// may register further services before the server starts serving.
type Backend struct {
	register []func(*grpcgo.Server)
	opts     []grpcgo.ServerOption
}

// New builds a backend; each register func is applied to every server it starts.
func New(register ...func(*grpcgo.Server)) *Backend { return &Backend{register: register} }

// WithServerOptions appends options passed to grpc.NewServer.
func (b *Backend) WithServerOptions(opts ...grpcgo.ServerOption) *Backend {
	b.opts = append(b.opts, opts...)
	return b
}

func (b *Backend) Kind() transport.Kind { return transport.KindGRPC }

func (b *Backend) Init(ctx context.Context, hint string) (transport.Handle, error) {
	if hint == "" {
		hint = DefaultHint
	}
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", hint)
	if err != nil {
		return nil, err
	}
	srv := grpcgo.NewServer(b.opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	for _, fn := range b.register {
		fn(srv)
	}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	h := &Handle{srv: srv, health: hs, addr: l.Addr(), done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.serveErr = srv.Serve(l)
	}()
	return h, nil
}

// Handle is a serving gRPC server.
type Handle struct {
	srv      *grpcgo.Server
	health   *health.Server
	addr     net.Addr
	done     chan struct{}
	serveErr error

	closeOnce sync.Once
}

func (h *Handle) Contact() transport.Address {
	return transport.NewAddress(transport.KindGRPC, h.addr.String())
}

// Server exposes the underlying grpc server.
func (h *Handle) Server() *grpcgo.Server { return h.srv }

// Shutdown drains in-flight RPCs until ctx is done, then stops hard.
func (h *Handle) Shutdown(ctx context.Context) error {
	var err error
	h.closeOnce.Do(func() {
		h.health.Shutdown()
		stopped := make(chan struct{})
		go func() {
			h.srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			h.srv.Stop()
			err = ctx.Err()
		}
		<-h.done
		if err == nil && h.serveErr != nil && h.serveErr != grpcgo.ErrServerStopped {
			err = h.serveErr
		}
	})
	return err
}
