// Package node starts the configured transports of one process and keeps
// them up until shutdown.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/config"
	"meshrpc/pkg/observability"
	"meshrpc/pkg/rpc"
	"meshrpc/pkg/transport"
)

// Node owns the rpc.Manager built from configuration.
type Node struct {
	cfg      *config.Config
	log      *zap.Logger
	mgr      *rpc.Manager
	encoding codec.Kind
	reg      *prometheus.Registry

	mu         sync.Mutex
	started    []transport.Kind
	metricsSrv *http.Server
	metricsLn  net.Listener
}

// New validates cfg and builds the manager. Extra options are applied after
// the ones derived from cfg.
func New(cfg *config.Config, log *zap.Logger, opts ...rpc.Option) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.L()
	}
	guard, err := rpc.ParseGuard(cfg.RPC.Guard)
	if err != nil {
		return nil, err
	}
	enc, err := codec.ParseKind(cfg.RPC.Encoding)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	base := []rpc.Option{
		rpc.WithLogger(log.Named("rpc")),
		rpc.WithGuard(guard),
		rpc.WithNodeName(cfg.AppName),
		rpc.WithMetrics(observability.NewMetrics(reg)),
	}
	return &Node{
		cfg:      cfg,
		log:      log,
		mgr:      rpc.NewManager(append(base, opts...)...),
		encoding: enc,
		reg:      reg,
	}, nil
}

// Manager exposes the underlying lifecycle manager.
func (n *Node) Manager() *rpc.Manager { return n.mgr }

// Registry is the prometheus registry the node's collectors live in.
func (n *Node) Registry() *prometheus.Registry { return n.reg }

// Start brings up every configured transport in order. A failing mandatory
// transport stops whatever was already started and aborts; other failures
// are logged and skipped.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, tc := range n.cfg.RPC.Transports {
		kind, err := transport.ParseKind(tc.Kind)
		if err != nil {
			return errors.Join(err, n.stopAll(ctx))
		}
		if err := n.startOne(ctx, kind, tc.Contact); err != nil {
			if tc.Mandatory {
				n.log.Error("mandatory transport failed", zap.Stringer("transport", kind), zap.Error(err))
				return errors.Join(err, n.stopAll(ctx))
			}
			n.log.Warn("transport skipped", zap.Stringer("transport", kind), zap.Error(err))
			continue
		}
		n.started = append(n.started, kind)
	}
	if len(n.started) == 0 && len(n.cfg.RPC.Transports) > 0 {
		return errors.New("no transport could be started")
	}

	if err := n.writeContactFile(); err != nil {
		return errors.Join(err, n.stopAll(ctx))
	}
	if err := n.serveMetrics(); err != nil {
		return errors.Join(err, n.stopAll(ctx))
	}
	return nil
}

func (n *Node) startOne(ctx context.Context, kind transport.Kind, hint string) error {
	if d := n.cfg.RPC.StartTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if err := n.mgr.Start(ctx, kind, n.encoding, hint); err != nil {
		return err
	}
	contact, err := n.mgr.QueryContact(kind)
	if err != nil {
		return err
	}
	n.log.Info("transport ready", zap.Stringer("transport", kind), zap.Stringer("contact", contact))
	return nil
}

// writeContactFile stores the card of the first started transport.
func (n *Node) writeContactFile() error {
	path := n.cfg.RPC.ContactFile
	if path == "" || len(n.started) == 0 {
		return nil
	}
	data, err := n.mgr.ContactCard(n.started[0])
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("contact file: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("contact file: %w", err)
	}
	n.log.Info("contact card written", zap.String("path", path), zap.Stringer("encoding", n.encoding))
	return nil
}

func (n *Node) serveMetrics() error {
	if n.cfg.Metrics.Listen == "" {
		return nil
	}
	ln, err := net.Listen("tcp", n.cfg.Metrics.Listen)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(n.reg, promhttp.HandlerOpts{}))
	n.metricsLn = ln
	n.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := n.metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	n.log.Info("metrics listening", zap.Stringer("addr", ln.Addr()))
	return nil
}

// MetricsAddr returns the bound metrics address, or nil when disabled.
func (n *Node) MetricsAddr() net.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.metricsLn == nil {
		return nil
	}
	return n.metricsLn.Addr()
}

// Contacts returns the contact address of every started transport.
func (n *Node) Contacts() map[transport.Kind]transport.Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[transport.Kind]transport.Address, len(n.started))
	for _, k := range n.started {
		if a, err := n.mgr.QueryContact(k); err == nil {
			out[k] = a
		}
	}
	return out
}

// Stop releases every transport and the metrics endpoint.
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var err error
	if n.metricsSrv != nil {
		err = n.metricsSrv.Shutdown(ctx)
		n.metricsSrv, n.metricsLn = nil, nil
	}
	return errors.Join(err, n.stopAll(ctx))
}

func (n *Node) stopAll(ctx context.Context) error {
	if d := n.cfg.RPC.StopTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	n.started = nil
	return n.mgr.StopAll(ctx)
}
