//go:build windows

package winpipe

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/Microsoft/go-winio"

	"meshrpc/pkg/transport"
)

func (b *Backend) Init(ctx context.Context, pipeName string) (transport.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pipeName == "" {
		pipeName = DefaultName()
	}
	l, err := winio.ListenPipe(pipeName, nil)
	if err != nil {
		return nil, err
	}
	h := &Handle{l: l, name: pipeName, newCh: make(chan net.Conn, 8), closeCh: make(chan struct{}), loopDone: make(chan struct{})}
	go h.acceptLoop()
	return h, nil
}

// Dial connects to a pipe published by a Handle.
func Dial(ctx context.Context, pipeName string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, pipeName)
}

// Handle is a listening named pipe.
type Handle struct {
	l         net.Listener
	name      string
	newCh     chan net.Conn
	closeCh   chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

func (h *Handle) Contact() transport.Address { return transport.NewAddress(transport.KindWinPipe, h.name) }

// Accept blocks until a client connects or ctx is done.
func (h *Handle) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.closeCh:
		return nil, errors.New("winpipe listener closed")
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
