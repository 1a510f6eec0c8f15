package jsonrpc

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	"meshrpc/pkg/transport"
)

// DefaultHint is bound when the caller gives no contact hint.
const DefaultHint = "127.0.0.1:0"

// Path is where the JSON-RPC 2.0 endpoint is mounted.
const Path = "/rpc"

// Backend serves JSON-RPC 2.0 over HTTP. Every server exposes the Node
// service so peers can confirm the contact they were handed out of band.
type Backend struct {
	services map[string]any
}

func New() *Backend { return &Backend{services: make(map[string]any)} }

// Register adds a gorilla/rpc service to every server started afterwards.
func (b *Backend) Register(name string, svc any) *Backend {
	b.services[name] = svc
	return b
}

func (b *Backend) Kind() transport.Kind { return transport.KindJSONRPC }

func (b *Backend) Init(ctx context.Context, hint string) (transport.Handle, error) {
	if hint == "" {
		hint = DefaultHint
	}
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", hint)
	if err != nil {
		return nil, err
	}
	h := &Handle{addr: l.Addr(), done: make(chan struct{})}

	s := rpc.NewServer()
	s.RegisterCodec(json2.NewCodec(), "application/json")
	s.RegisterCodec(json2.NewCodec(), "application/json;charset=UTF-8")
	if err := s.RegisterService(&NodeService{h: h}, "Node"); err != nil {
		_ = l.Close()
		return nil, err
	}
	for name, svc := range b.services {
		if err := s.RegisterService(svc, name); err != nil {
			_ = l.Close()
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle(Path, s)
	h.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		defer close(h.done)
		if err := h.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.serveErr = err
		}
	}()
	return h, nil
}

// Handle is a serving JSON-RPC endpoint.
type Handle struct {
	srv      *http.Server
	addr     net.Addr
	done     chan struct{}
	serveErr error

	closeOnce sync.Once
}

func (h *Handle) Contact() transport.Address {
	return transport.NewAddress(transport.KindJSONRPC, h.addr.String()+Path)
}

// URL returns the http URL of the endpoint.
func (h *Handle) URL() string { return "http://" + h.addr.String() + Path }

func (h *Handle) Shutdown(ctx context.Context) error {
	var err error
	h.closeOnce.Do(func() {
		err = h.srv.Shutdown(ctx)
		if err != nil {
			_ = h.srv.Close()
		}
		<-h.done
		if err == nil {
			err = h.serveErr
		}
	})
	return err
}

// ContactArgs is the (empty) request of Node.Contact.
type ContactArgs struct{}

// ContactReply carries the contact address of the serving endpoint.
type ContactReply struct {
	Address string `json:"address"`
}

// NodeService answers Node.Contact.
type NodeService struct{ h *Handle }

func (n *NodeService) Contact(_ *http.Request, _ *ContactArgs, reply *ContactReply) error {
	reply.Address = n.h.Contact().String()
	return nil
}
