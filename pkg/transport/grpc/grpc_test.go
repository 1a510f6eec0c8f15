package grpc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpcgo "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"meshrpc/pkg/transport"
)

func TestHealthServing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	registered := false
	var calls atomic.Int32
	count := func(ctx context.Context, req any, _ *grpcgo.UnaryServerInfo, next grpcgo.UnaryHandler) (any, error) {
		calls.Add(1)
		return next(ctx, req)
	}
	b := New(func(*grpcgo.Server) { registered = true }).WithServerOptions(grpcgo.UnaryInterceptor(count))
	h, err := b.Init(ctx, "")
	require.NoError(t, err)
	assert.True(t, registered)

	kind, endpoint, err := transport.ParseAddress(h.Contact())
	require.NoError(t, err)
	assert.Equal(t, transport.KindGRPC, kind)

	cc, err := grpcgo.NewClient(endpoint, grpcgo.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer cc.Close()

	resp, err := healthpb.NewHealthClient(cc).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	assert.EqualValues(t, 1, calls.Load(), "server options reach grpc.NewServer")

	require.NoError(t, h.Shutdown(ctx))
	require.NoError(t, h.Shutdown(ctx))
}

func TestShutdownDeadline(t *testing.T) {
	h, err := New().Init(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// an expired context forces a hard stop; no RPCs are in flight so a
	// graceful stop may still win the race
	err = h.Shutdown(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
