//go:build !windows

package winpipe

import (
	"context"

	"meshrpc/pkg/transport"
)

func (b *Backend) Init(_ context.Context, _ string) (transport.Handle, error) {
	return nil, transport.ErrNotSupported
}
