package transports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshrpc/pkg/transport"
)

func TestNewByKind(t *testing.T) {
	for _, k := range transport.Kinds() {
		b, err := NewByKind(k)
		require.NoError(t, err, k.String())
		assert.Equal(t, k, b.Kind())
	}
	_, err := NewByKind(transport.KindUnknown)
	assert.Error(t, err)
}

func TestDefaultCoversEveryKind(t *testing.T) {
	d := Default()
	assert.Len(t, d, len(transport.Kinds()))
	for k, b := range d {
		assert.Equal(t, k, b.Kind())
	}
}
