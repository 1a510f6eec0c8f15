package mem

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshrpc/pkg/transport"
)

func TestNamedEndpoint(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b := New()

	h, err := b.Init(ctx, "svc")
	require.NoError(t, err)
	assert.Equal(t, transport.Address("mem://svc"), h.Contact())

	_, err = b.Init(ctx, "svc")
	assert.ErrorIs(t, err, ErrExists)

	cli, err := b.Dial(ctx, "svc")
	require.NoError(t, err)
	srv, err := h.(*Handle).Accept(ctx)
	require.NoError(t, err)

	go func() { _, _ = cli.Write([]byte("hello")) }()
	buf := make([]byte, 5)
	_, err = io.ReadFull(srv, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	require.NoError(t, h.Shutdown(ctx))
	_, err = b.Dial(ctx, "svc")
	assert.ErrorIs(t, err, ErrNoSuch)

	// the name is free again after shutdown
	h2, err := b.Init(ctx, "svc")
	require.NoError(t, err)
	require.NoError(t, h2.Shutdown(ctx))
}

func TestGeneratedName(t *testing.T) {
	b := New()
	h1, err := b.Init(context.Background(), "")
	require.NoError(t, err)
	h2, err := b.Init(context.Background(), "")
	require.NoError(t, err)
	assert.NotEqual(t, h1.Contact(), h2.Contact())
	assert.Len(t, h1.(*Handle).Name(), 36)
}

func TestInitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Init(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialBacklog(t *testing.T) {
	ctx := context.Background()
	b := New()
	h, err := b.Init(ctx, "busy")
	require.NoError(t, err)
	defer h.Shutdown(ctx)

	var err2 error
	for i := 0; i < 16 && err2 == nil; i++ {
		_, err2 = b.Dial(ctx, "busy")
	}
	assert.ErrorIs(t, err2, ErrBacklog)
}
