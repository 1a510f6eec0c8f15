// Package transports wires the concrete backends by kind.
package transports

import (
	"meshrpc/pkg/transport"
	grpcbackend "meshrpc/pkg/transport/grpc"
	"meshrpc/pkg/transport/jsonrpc"
	"meshrpc/pkg/transport/mem"
	tquic "meshrpc/pkg/transport/quic"
	ttcp "meshrpc/pkg/transport/tcp"
	"meshrpc/pkg/transport/udp"
	"meshrpc/pkg/transport/winpipe"
)

// NewByKind constructs the backend for a kind.
func NewByKind(kind transport.Kind) (transport.Backend, error) {
	switch kind {
	case transport.KindTCP:
		return ttcp.New(), nil
	case transport.KindUDP:
		return udp.New(), nil
	case transport.KindQUIC:
		return tquic.New(), nil
	case transport.KindMem:
		return mem.New(), nil
	case transport.KindWinPipe:
		return winpipe.New(), nil
	case transport.KindGRPC:
		return grpcbackend.New(), nil
	case transport.KindJSONRPC:
		return jsonrpc.New(), nil
	default:
		return nil, transport.ErrUnknownKind(kind.String())
	}
}

// Default returns one backend per resolvable kind.
func Default() map[transport.Kind]transport.Backend {
	out := make(map[transport.Kind]transport.Backend, len(transport.Kinds()))
	for _, k := range transport.Kinds() {
		b, err := NewByKind(k)
		if err != nil {
			continue
		}
		out[k] = b
	}
	return out
}
