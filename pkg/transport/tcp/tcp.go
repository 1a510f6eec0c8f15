package tcp

import (
	"context"
	"errors"
	"net"
	"sync"

	"meshrpc/pkg/transport"
)

// DefaultHint is bound when the caller gives no contact hint.
const DefaultHint = "127.0.0.1:0"

// Backend binds a TCP listener. Inbound connections are queued for Accept;
// framing is left to the layer above.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) Kind() transport.Kind { return transport.KindTCP }

func (b *Backend) Init(ctx context.Context, hint string) (transport.Handle, error) {
	if hint == "" {
		hint = DefaultHint
	}
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", hint)
	if err != nil {
		return nil, err
	}
	h := &Handle{l: l, newCh: make(chan net.Conn, 8), closeCh: make(chan struct{}), loopDone: make(chan struct{})}
	go h.acceptLoop()
	return h, nil
}

// Handle is a bound TCP listener.
type Handle struct {
	l         net.Listener
	newCh     chan net.Conn
	closeCh   chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

func (h *Handle) Contact() transport.Address {
	return transport.NewAddress(transport.KindTCP, h.l.Addr().String())
}

// Addr returns the local listening address.
func (h *Handle) Addr() net.Addr { return h.l.Addr() }

// Accept blocks until an inbound connection is available or ctx is done.
func (h *Handle) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.closeCh:
		return nil, errors.New("tcp listener closed")
	case c := <-h.newCh:
		return c, nil
	}
}

func (h *Handle) Shutdown(_ context.Context) error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closeCh)
		err = h.l.Close()
		<-h.loopDone
		// connections nobody accepted are closed so their peers see EOF
		for {
			select {
			case c := <-h.newCh:
				_ = c.Close()
			default:
				return
			}
		}
	})
	return err
}

func (h *Handle) acceptLoop() {
	defer close(h.loopDone)
	for {
		c, err := h.l.Accept()
		if err != nil {
			return
		}
		select {
		case h.newCh <- c:
		default:
			_ = c.Close()
		}
	}
}
