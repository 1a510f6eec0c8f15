package codec

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnsupported is returned by Select for kinds without a registered scheme.
	ErrUnsupported = errors.New("unsupported encoding")
	// ErrActive is returned by Select while a different encoding is active.
	ErrActive = errors.New("another encoding is active")
	// ErrNotSelected is returned by Init before a successful Select.
	ErrNotSelected = errors.New("no encoding selected")
)

// Subsystem keeps the single process-wide encoding. There is no
// per-transport override: whatever is active applies to every transport.
type Subsystem struct {
	mu       sync.RWMutex
	schemes  map[Kind]Factory
	selected Kind
	scheme   Scheme
	active   Codec
}

// NewSubsystem returns a subsystem preloaded with the built-in schemes.
func NewSubsystem() *Subsystem {
	s := &Subsystem{schemes: make(map[Kind]Factory)}
	s.Register(KindCBOR, CBORScheme)
	s.Register(KindProto, ProtoScheme)
	s.Register(KindJSON, JSONScheme)
	return s
}

// Register adds or replaces the factory for kind.
func (s *Subsystem) Register(kind Kind, f Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemes[kind] = f
}

// Supported reports whether kind has a registered scheme.
func (s *Subsystem) Supported(kind Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.schemes[kind]
	return ok
}

// Select resolves kind to a scheme for the next Init. Selecting the kind
// that is already active is a no-op.
func (s *Subsystem) Select(kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		if s.selected == kind {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrActive, s.selected)
	}
	f, ok := s.schemes[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	s.selected = kind
	s.scheme = f()
	return nil
}

// Init initializes the selected scheme and marks it active.
func (s *Subsystem) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil
	}
	if s.scheme == nil {
		return ErrNotSelected
	}
	c, err := s.scheme.Init()
	if err != nil {
		return fmt.Errorf("init %s: %w", s.selected, err)
	}
	s.active = c
	return nil
}

// Shutdown finalizes the active scheme. The selection is cleared even when
// the scheme reports a failure; shutdown is never retried.
func (s *Subsystem) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.scheme = nil
		s.selected = KindUnknown
		return nil
	}
	sc, kind := s.scheme, s.selected
	s.active, s.scheme, s.selected = nil, nil, KindUnknown
	if err := sc.Shutdown(); err != nil {
		return fmt.Errorf("shutdown %s: %w", kind, err)
	}
	return nil
}

// Active returns the active encoding and its codec.
func (s *Subsystem) Active() (Kind, Codec, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return KindUnknown, nil, false
	}
	return s.selected, s.active, true
}
