package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a network substrate a backend binds.
type Kind int

const (
	KindUnknown Kind = iota
	KindTCP
	KindUDP
	KindQUIC
	KindMem
	KindWinPipe
	KindGRPC
	KindJSONRPC
)

// Kinds lists every resolvable kind in enumeration order.
func Kinds() []Kind {
	return []Kind{KindTCP, KindUDP, KindQUIC, KindMem, KindWinPipe, KindGRPC, KindJSONRPC}
}

// String returns the URL scheme used in contact addresses.
func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindUDP:
		return "udp"
	case KindQUIC:
		return "quic"
	case KindMem:
		return "mem"
	case KindWinPipe:
		return "winpipe"
	case KindGRPC:
		return "grpc"
	case KindJSONRPC:
		return "jsonrpc"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseKind maps a config or URL scheme string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return KindTCP, nil
	case "udp":
		return KindUDP, nil
	case "quic":
		return KindQUIC, nil
	case "mem", "inproc":
		return KindMem, nil
	case "winpipe", "pipe":
		return KindWinPipe, nil
	case "grpc":
		return KindGRPC, nil
	case "jsonrpc", "http":
		return KindJSONRPC, nil
	default:
		return KindUnknown, ErrUnknownKind(s)
	}
}

// ErrUnknownKind is returned for strings that name no transport kind.
type ErrUnknownKind string

func (e ErrUnknownKind) Error() string { return "unknown transport kind: " + string(e) }

// Address tells peers how to reach this process. It is only meaningful to
// the backend kind that produced it.
type Address string

func (a Address) String() string { return string(a) }

// NewAddress formats an endpoint as <scheme>://<endpoint>.
func NewAddress(kind Kind, endpoint string) Address {
	return Address(kind.String() + "://" + endpoint)
}

// ParseAddress splits an address back into its kind and endpoint.
func ParseAddress(a Address) (Kind, string, error) {
	scheme, endpoint, ok := strings.Cut(string(a), "://")
	if !ok || endpoint == "" {
		return KindUnknown, "", fmt.Errorf("malformed contact address %q", string(a))
	}
	k, err := ParseKind(scheme)
	if err != nil {
		return KindUnknown, "", err
	}
	return k, endpoint, nil
}

// Handle is the live state of an initialized backend. It is owned by the
// registry slot it occupies.
type Handle interface {
	// Contact returns the address peers use to reach the bound endpoint.
	Contact() Address
	// Shutdown releases the endpoint. It is called at most once.
	Shutdown(ctx context.Context) error
}

// Backend brings one kind of transport into a ready state.
type Backend interface {
	Kind() Kind
	// Init binds a local endpoint. hint is an address or name to bind to;
	// empty lets the backend choose. ctx carries a best-effort deadline.
	Init(ctx context.Context, hint string) (Handle, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc struct {
	K Kind
	F func(ctx context.Context, hint string) (Handle, error)
}

func (b BackendFunc) Kind() Kind { return b.K }

func (b BackendFunc) Init(ctx context.Context, hint string) (Handle, error) { return b.F(ctx, hint) }

// ErrNotSupported is returned by backends that cannot run on this platform.
var ErrNotSupported = errors.New("transport not supported on this platform")
