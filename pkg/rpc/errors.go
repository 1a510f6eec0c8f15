package rpc

import (
	"errors"
	"strings"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/transport"
)

// Error categories. Every failure returned by Manager matches exactly one of
// these with errors.Is.
var (
	ErrUnknownTransport        = errors.New("unknown transport")
	ErrUnsupportedEncoding     = errors.New("unsupported encoding")
	ErrTransportInitFailed     = errors.New("transport init failed")
	ErrTransportAlreadyBound   = errors.New("transport already bound")
	ErrEncodingInitFailed      = errors.New("encoding init failed")
	ErrNotInitialized          = errors.New("rpc not initialized")
	ErrTransportShutdownFailed = errors.New("transport shutdown failed")
	ErrEncodingShutdownFailed  = errors.New("encoding shutdown failed")
	ErrNoSuchTransport         = errors.New("no such transport")
	ErrTimedOut                = errors.New("timed out")
	ErrEncodingConflict        = errors.New("encoding conflict")
)

// Error describes a failed lifecycle operation. Code is one of the
// categories above; Err is the backend's or codec's native error, if any.
type Error struct {
	Op        string
	Transport transport.Kind
	Encoding  codec.Kind
	Code      error
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("rpc ")
	b.WriteString(e.Op)
	if e.Transport != transport.KindUnknown {
		b.WriteString(" ")
		b.WriteString(e.Transport.String())
	}
	if e.Encoding != codec.KindUnknown {
		b.WriteString(" encoding=")
		b.WriteString(e.Encoding.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Code.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the category and the native cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

// label is the short metric label for an error category.
func label(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "error"
	}
	switch e.Code {
	case ErrUnknownTransport:
		return "unknown_transport"
	case ErrUnsupportedEncoding:
		return "unsupported_encoding"
	case ErrTransportInitFailed:
		return "transport_init_failed"
	case ErrTransportAlreadyBound:
		return "transport_already_bound"
	case ErrEncodingInitFailed:
		return "encoding_init_failed"
	case ErrNotInitialized:
		return "not_initialized"
	case ErrTransportShutdownFailed:
		return "transport_shutdown_failed"
	case ErrEncodingShutdownFailed:
		return "encoding_shutdown_failed"
	case ErrNoSuchTransport:
		return "no_such_transport"
	case ErrTimedOut:
		return "timed_out"
	case ErrEncodingConflict:
		return "encoding_conflict"
	default:
		return "error"
	}
}
