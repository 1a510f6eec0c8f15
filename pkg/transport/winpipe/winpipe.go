package winpipe

import (
	"github.com/google/uuid"

	"meshrpc/pkg/transport"
)

// Backend binds a Windows named pipe. On other platforms Init fails with
// transport.ErrNotSupported.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) Kind() transport.Kind { return transport.KindWinPipe }

// DefaultName returns a fresh pipe name used when no hint is given.
func DefaultName() string { return `\\.\pipe\meshrpc-` + uuid.NewString() }
