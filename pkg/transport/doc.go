// Package transport defines the backend contract used to bring a network
// substrate into a ready state, the contact address format, and the
// per-kind registry of live handles.
//
// Key concepts:
// - Kind: closed enumeration of substrates (tcp, udp, quic, mem, winpipe, grpc, jsonrpc)
// - Backend: binds a local endpoint for one Kind and returns a Handle
// - Handle: the bound endpoint; reports its contact Address and shuts down
// - Registry: one slot per Kind holding at most one live Handle
//
// Concrete backends live in subpackages; Backends wires them by kind.
package transport
