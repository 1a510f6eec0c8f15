package mem

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"

	"meshrpc/pkg/transport"
)

var (
	ErrExists  = errors.New("mem: endpoint already exists")
	ErrNoSuch  = errors.New("mem: no such endpoint")
	ErrClosed  = errors.New("mem: endpoint closed")
	ErrBacklog = errors.New("mem: accept backlog full")
)

// Backend is an in-process transport using net.Pipe. Endpoints are named
// and only reachable through the Backend instance that created them.
// Useful for tests and single-process deployments.
type Backend struct {
	mu        sync.Mutex
	endpoints map[string]*Handle
}

func New() *Backend { return &Backend{endpoints: make(map[string]*Handle)} }

func (b *Backend) Kind() transport.Kind { return transport.KindMem }

func (b *Backend) Init(ctx context.Context, name string) (transport.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		name = uuid.NewString()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.endpoints[name]; ok {
		return nil, ErrExists
	}
	h := &Handle{b: b, name: name, newCh: make(chan net.Conn, 8), closeCh: make(chan struct{})}
	b.endpoints[name] = h
	return h, nil
}

// Dial connects to a named endpoint and returns the client side of the pipe.
func (b *Backend) Dial(ctx context.Context, name string) (net.Conn, error) {
	b.mu.Lock()
	h := b.endpoints[name]
	b.mu.Unlock()
	if h == nil {
		return nil, ErrNoSuch
	}
	srv, cli := net.Pipe()
	select {
	case <-ctx.Done():
		_ = srv.Close()
		_ = cli.Close()
		return nil, ctx.Err()
	case <-h.closeCh:
		_ = srv.Close()
		_ = cli.Close()
		return nil, ErrClosed
	case h.newCh <- srv:
		return cli, nil
	default:
		_ = srv.Close()
		_ = cli.Close()
		return nil, ErrBacklog
	}
}

// Handle is a named in-process endpoint.
type Handle struct {
	b         *Backend
	name      string
	newCh     chan net.Conn
	closeCh   chan struct{}
	closeOnce sync.Once
}

func (h *Handle) Contact() transport.Address { return transport.NewAddress(transport.KindMem, h.name) }

// Name returns the endpoint name.
func (h *Handle) Name() string { return h.name }

// Accept blocks until a Dial reaches this endpoint or ctx is done.
func (h *Handle) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.closeCh:
		return nil, ErrClosed
	case c := <-h.newCh:
		return c, nil
	}
}

func (h *Handle) Shutdown(_ context.Context) error {
	h.closeOnce.Do(func() {
		close(h.closeCh)
		h.b.mu.Lock()
		delete(h.b.endpoints, h.name)
		h.b.mu.Unlock()
	})
	return nil
}
