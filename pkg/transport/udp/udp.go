package udp

import (
	"context"
	"net"
	"sync"

	"meshrpc/pkg/transport"
)

// DefaultHint is bound when the caller gives no contact hint.
const DefaultHint = "127.0.0.1:0"

// Backend binds a UDP socket. Datagrams are not demultiplexed here; the
// socket is exposed to the layer above through PacketConn.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) Kind() transport.Kind { return transport.KindUDP }

func (b *Backend) Init(ctx context.Context, hint string) (transport.Handle, error) {
	if hint == "" {
		hint = DefaultHint
	}
	var lc net.ListenConfig
	c, err := lc.ListenPacket(ctx, "udp", hint)
	if err != nil {
		return nil, err
	}
	return &Handle{conn: c}, nil
}

// Handle is a bound UDP socket.
type Handle struct {
	conn      net.PacketConn
	closeOnce sync.Once
}

func (h *Handle) Contact() transport.Address {
	return transport.NewAddress(transport.KindUDP, h.conn.LocalAddr().String())
}

// PacketConn returns the bound socket.
func (h *Handle) PacketConn() net.PacketConn { return h.conn }

func (h *Handle) Shutdown(_ context.Context) error {
	var err error
	h.closeOnce.Do(func() { err = h.conn.Close() })
	return err
}
