package tcp

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshrpc/pkg/transport"
)

func TestInitAcceptShutdown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := New().Init(ctx, "")
	require.NoError(t, err)
	contact := h.Contact()
	require.True(t, strings.HasPrefix(contact.String(), "tcp://127.0.0.1:"), contact.String())

	kind, endpoint, err := transport.ParseAddress(contact)
	require.NoError(t, err)
	assert.Equal(t, transport.KindTCP, kind)

	c, err := net.Dial("tcp", endpoint)
	require.NoError(t, err)
	defer c.Close()

	srv, err := h.(*Handle).Accept(ctx)
	require.NoError(t, err)
	_ = srv.Close()

	require.NoError(t, h.Shutdown(ctx))
	require.NoError(t, h.Shutdown(ctx))
	_, err = h.(*Handle).Accept(ctx)
	assert.Error(t, err)
}

func TestInitBadHint(t *testing.T) {
	_, err := New().Init(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestInitPortInUse(t *testing.T) {
	ctx := context.Background()
	h, err := New().Init(ctx, "")
	require.NoError(t, err)
	defer h.Shutdown(ctx)

	_, endpoint, err := transport.ParseAddress(h.Contact())
	require.NoError(t, err)
	_, err = New().Init(ctx, endpoint)
	assert.Error(t, err)
}

func TestShutdownClosesUnacceptedConns(t *testing.T) {
	ctx := context.Background()
	h, err := New().Init(ctx, "")
	require.NoError(t, err)
	_, endpoint, err := transport.ParseAddress(h.Contact())
	require.NoError(t, err)

	c, err := net.Dial("tcp", endpoint)
	require.NoError(t, err)
	defer c.Close()
	// let the accept loop queue the connection
	require.Eventually(t, func() bool { return len(h.(*Handle).newCh) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Shutdown(ctx))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = c.Read(make([]byte, 1))
	require.Error(t, err)
	var ne net.Error
	if errors.As(err, &ne) {
		assert.False(t, ne.Timeout(), "peer must see the close, not hang")
	}
}
