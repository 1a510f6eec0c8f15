package quic

import (
	"context"
	"testing"
	"time"

	quicgo "github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshrpc/pkg/transport"
)

func TestInitDialShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	h, err := New().Init(ctx, "")
	require.NoError(t, err)
	kind, endpoint, err := transport.ParseAddress(h.Contact())
	require.NoError(t, err)
	assert.Equal(t, transport.KindQUIC, kind)

	accepted := make(chan error, 1)
	go func() {
		c, err := h.(*Handle).Accept(ctx)
		if err == nil {
			_ = c.CloseWithError(0, "")
		}
		accepted <- err
	}()

	conn, err := quicgo.DialAddr(ctx, endpoint, ClientTLS(), nil)
	require.NoError(t, err)
	assert.Equal(t, ALPN, conn.ConnectionState().TLS.NegotiatedProtocol)
	require.NoError(t, <-accepted)
	_ = conn.CloseWithError(0, "")

	require.NoError(t, h.Shutdown(ctx))
	require.NoError(t, h.Shutdown(ctx))
}

func TestInitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Init(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}
