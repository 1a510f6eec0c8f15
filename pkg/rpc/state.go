package rpc

import "fmt"

// State is the readiness of the whole RPC subsystem.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// GuardPolicy decides what a Start on an already ready manager does.
type GuardPolicy int

const (
	// GuardPerKind skips the work only when the requested kind is already
	// registered; a different kind is initialized next to it.
	GuardPerKind GuardPolicy = iota
	// GuardGlobal skips the work for any kind once the manager is ready.
	// Stop then finalizes the encoding and resets readiness unconditionally.
	GuardGlobal
)

func (g GuardPolicy) String() string {
	if g == GuardGlobal {
		return "global"
	}
	return "per-kind"
}

// ParseGuard maps "per-kind" or "global" to a policy.
func ParseGuard(s string) (GuardPolicy, error) {
	switch s {
	case "", "per-kind":
		return GuardPerKind, nil
	case "global":
		return GuardGlobal, nil
	default:
		return GuardPerKind, fmt.Errorf("unknown guard policy %q", s)
	}
}
