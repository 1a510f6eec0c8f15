package rpc

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/observability"
	"meshrpc/pkg/transport"
	"meshrpc/pkg/transports"
)

const (
	opStart = "start"
	opStop  = "stop"
	opQuery = "query contact"
)

// Manager owns the transport registry, the process-wide encoding and the
// readiness state. All transitions are serialized on one mutex, so
// concurrent Start calls cannot both pass the readiness check. Backend calls
// run while the mutex is held.
type Manager struct {
	mu       sync.Mutex
	state    State
	guard    GuardPolicy
	node     string
	backends map[transport.Kind]transport.Backend
	registry *transport.Registry
	enc      *codec.Subsystem
	log      *zap.Logger
	metrics  *observability.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger; the default is zap.L().Named("rpc").
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

// WithGuard selects how repeated starts are treated.
func WithGuard(g GuardPolicy) Option { return func(m *Manager) { m.guard = g } }

// WithBackend installs b for its kind, replacing the default backend.
func WithBackend(b transport.Backend) Option {
	return func(m *Manager) { m.backends[b.Kind()] = b }
}

// WithBackends replaces the whole kind to backend table.
func WithBackends(bs map[transport.Kind]transport.Backend) Option {
	return func(m *Manager) { m.backends = bs }
}

// WithEncodings replaces the encoding subsystem.
func WithEncodings(s *codec.Subsystem) Option { return func(m *Manager) { m.enc = s } }

// WithMetrics records lifecycle transitions.
func WithMetrics(mt *observability.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// WithNodeName sets the name published in contact cards.
func WithNodeName(name string) Option { return func(m *Manager) { m.node = name } }

// NewManager returns an uninitialized manager with every built-in backend
// and encoding available.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		node:     "meshrpc",
		backends: transports.Default(),
		registry: transport.NewRegistry(),
		enc:      codec.NewSubsystem(),
		log:      zap.L().Named("rpc"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start brings the transport for kind up on hint (empty lets the backend
// choose) and activates the encoding. On a ready manager it returns nil
// without doing any work when the guard policy says so.
//
// Setup is not rolled back: if the encoding step fails the transport stays
// registered and must be released with Stop.
func (m *Manager) Start(ctx context.Context, kind transport.Kind, enc codec.Kind, hint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	noop, err := m.start(ctx, kind, enc, hint)
	switch {
	case err != nil:
		m.metrics.ObserveStart(kind.String(), label(err))
	case noop:
		m.metrics.ObserveStart(kind.String(), "noop")
	default:
		m.metrics.ObserveStart(kind.String(), "ok")
	}
	m.metrics.SetState(m.state == StateReady, m.registry.Len())
	return err
}

func (m *Manager) start(ctx context.Context, kind transport.Kind, enc codec.Kind, hint string) (bool, error) {
	if m.state == StateReady {
		if m.guard == GuardGlobal {
			m.log.Debug("already initialized", zap.Stringer("transport", kind))
			return true, nil
		}
		if _, ok := m.registry.Get(kind); ok {
			m.log.Debug("transport already initialized", zap.Stringer("transport", kind))
			return true, nil
		}
	}

	backend, ok := m.backends[kind]
	if !ok {
		m.log.Error("transport does not exist", zap.Stringer("transport", kind))
		return false, &Error{Op: opStart, Transport: kind, Code: ErrUnknownTransport}
	}
	if err := ctx.Err(); err != nil {
		return false, &Error{Op: opStart, Transport: kind, Code: ErrTimedOut, Err: err}
	}

	prev := m.state
	m.state = StateInitializing
	defer func() {
		if m.state == StateInitializing {
			m.state = prev
		}
	}()

	h, err := backend.Init(ctx, hint)
	if err != nil {
		code := ErrTransportInitFailed
		if ctx.Err() != nil {
			code = ErrTimedOut
		}
		m.log.Error("transport init failed", zap.Stringer("transport", kind), zap.String("hint", hint), zap.Error(err))
		return false, &Error{Op: opStart, Transport: kind, Code: code, Err: err}
	}

	if err := m.registry.Put(kind, h); err != nil {
		if serr := h.Shutdown(ctx); serr != nil {
			m.log.Warn("release of unbound handle failed", zap.Stringer("transport", kind), zap.Error(serr))
		}
		return false, &Error{Op: opStart, Transport: kind, Code: ErrTransportAlreadyBound, Err: err}
	}

	if err := m.startEncoding(kind, enc); err != nil {
		m.log.Error("encoding init failed", zap.Stringer("transport", kind), zap.Stringer("encoding", enc), zap.Error(err))
		return false, err
	}

	m.state = StateReady
	m.log.Debug("rpc initialized",
		zap.Stringer("transport", kind),
		zap.Stringer("encoding", enc),
		zap.Stringer("contact", h.Contact()))
	return false, nil
}

func (m *Manager) startEncoding(kind transport.Kind, enc codec.Kind) error {
	if active, _, ok := m.enc.Active(); ok {
		if active == enc {
			return nil
		}
		return &Error{Op: opStart, Transport: kind, Encoding: enc, Code: ErrEncodingConflict,
			Err: fmt.Errorf("%s is active", active)}
	}
	if err := m.enc.Select(enc); err != nil {
		return &Error{Op: opStart, Transport: kind, Encoding: enc, Code: ErrUnsupportedEncoding, Err: err}
	}
	if err := m.enc.Init(); err != nil {
		return &Error{Op: opStart, Transport: kind, Encoding: enc, Code: ErrEncodingInitFailed, Err: err}
	}
	return nil
}

// Stop shuts down the transport for kind. The handle is dropped even when
// its shutdown fails, and the encoding is finalized regardless of the
// transport outcome. Both failures are reported, combined.
func (m *Manager) Stop(ctx context.Context, kind transport.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.stop(ctx, kind)
	if err != nil {
		m.metrics.ObserveStop(kind.String(), label(err))
	} else {
		m.metrics.ObserveStop(kind.String(), "ok")
	}
	m.metrics.SetState(m.state == StateReady, m.registry.Len())
	return err
}

func (m *Manager) stop(ctx context.Context, kind transport.Kind) error {
	h, ok := m.registry.Take(kind)
	if !ok {
		return &Error{Op: opStop, Transport: kind, Code: ErrNotInitialized}
	}

	prev := m.state
	m.state = StateFinalizing

	var errs error
	if err := h.Shutdown(ctx); err != nil {
		code := ErrTransportShutdownFailed
		if ctx.Err() != nil {
			code = ErrTimedOut
		}
		m.log.Error("transport shutdown failed", zap.Stringer("transport", kind), zap.Error(err))
		errs = multierr.Append(errs, &Error{Op: opStop, Transport: kind, Code: code, Err: err})
	}

	if m.guard == GuardGlobal || m.registry.Len() == 0 {
		active, _, _ := m.enc.Active()
		if err := m.enc.Shutdown(); err != nil {
			m.log.Error("encoding shutdown failed", zap.Stringer("encoding", active), zap.Error(err))
			errs = multierr.Append(errs, &Error{Op: opStop, Transport: kind, Encoding: active, Code: ErrEncodingShutdownFailed, Err: err})
		}
		m.state = StateUninitialized
	} else {
		m.state = prev
	}

	m.log.Debug("transport stopped", zap.Stringer("transport", kind), zap.Stringer("state", m.state))
	return errs
}

// StopAll stops every registered transport, highest kind first, and
// returns the combined failures.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	kinds := m.registry.Kinds()
	for i := len(kinds) - 1; i >= 0; i-- {
		err := m.stop(ctx, kinds[i])
		if err != nil {
			m.metrics.ObserveStop(kinds[i].String(), label(err))
		} else {
			m.metrics.ObserveStop(kinds[i].String(), "ok")
		}
		errs = multierr.Append(errs, err)
	}
	m.metrics.SetState(m.state == StateReady, m.registry.Len())
	return errs
}

// QueryContact returns the address peers use to reach this process over kind.
func (m *Manager) QueryContact(kind transport.Kind) (transport.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, err := m.readyHandle(kind)
	if err != nil {
		return "", err
	}
	return h.Contact(), nil
}

// readyHandle checks readiness before consulting the registry.
func (m *Manager) readyHandle(kind transport.Kind) (transport.Handle, error) {
	if m.state != StateReady {
		m.log.Error("RPC not initialized", zap.Stringer("transport", kind))
		return nil, &Error{Op: opQuery, Transport: kind, Code: ErrNotInitialized}
	}
	h, ok := m.registry.Get(kind)
	if !ok {
		return nil, &Error{Op: opQuery, Transport: kind, Code: ErrNoSuchTransport}
	}
	return h, nil
}

// State returns the current readiness.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active returns the registered transport kinds.
func (m *Manager) Active() []transport.Kind { return m.registry.Kinds() }

// Encoding returns the active encoding and its codec.
func (m *Manager) Encoding() (codec.Kind, codec.Codec, bool) { return m.enc.Active() }

// Guard returns the configured guard policy.
func (m *Manager) Guard() GuardPolicy { return m.guard }
