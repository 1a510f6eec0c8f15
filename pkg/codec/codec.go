// Package codec holds the wire encodings and the subsystem that keeps
// exactly one of them active for the whole process.
package codec

import (
	"fmt"
	"strings"
)

// Codec defines a simple interface for marshaling typed messages.
// Implementations should be deterministic and safe for cross-node exchange.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Content types of the built-in codecs.
const (
	ContentTypeJSON  = "application/json"
	ContentTypeProto = "application/x-protobuf"
	ContentTypeCBOR  = "application/cbor"
)

// Kind identifies a wire encoding scheme.
type Kind int

const (
	KindUnknown Kind = iota
	KindCBOR
	KindProto
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindCBOR:
		return "cbor"
	case KindProto:
		return "proto"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Kinds lists the built-in encodings.
func Kinds() []Kind { return []Kind{KindCBOR, KindProto, KindJSON} }

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cbor":
		return KindCBOR, nil
	case "proto", "protobuf":
		return KindProto, nil
	case "json":
		return KindJSON, nil
	default:
		return KindUnknown, fmt.Errorf("unknown encoding %q", s)
	}
}

// New returns a ready codec of the given kind without going through a
// Subsystem. Tools that decode stored contact cards use it.
func New(kind Kind) (Codec, error) {
	switch kind {
	case KindCBOR:
		return CBOR()
	case KindProto:
		return Proto(), nil
	case KindJSON:
		return JSON(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
}

// Scheme is one encoding implementation. Init prepares the codec and may
// fail; Shutdown releases whatever Init acquired.
type Scheme interface {
	Init() (Codec, error)
	Shutdown() error
}

// Factory builds a fresh Scheme for a selection.
type Factory func() Scheme

// staticScheme wraps a codec that needs no setup.
type staticScheme struct{ c Codec }

func (s staticScheme) Init() (Codec, error) { return s.c, nil }
func (s staticScheme) Shutdown() error { return nil }
