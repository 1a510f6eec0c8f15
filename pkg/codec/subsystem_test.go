package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheme struct {
	initErr, shutErr error
	inits, shuts     *int
}

func (f fakeScheme) Init() (Codec, error) {
	*f.inits++
	if f.initErr != nil {
		return nil, f.initErr
	}
	return JSON(), nil
}

func (f fakeScheme) Shutdown() error {
	*f.shuts++
	return f.shutErr
}

func TestSubsystemLifecycle(t *testing.T) {
	s := NewSubsystem()
	_, _, ok := s.Active()
	require.False(t, ok)

	require.NoError(t, s.Select(KindCBOR))
	require.NoError(t, s.Init())
	k, c, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, KindCBOR, k)
	assert.Equal(t, ContentTypeCBOR, c.ContentType())

	// same kind again is a no-op, a different one is refused
	require.NoError(t, s.Select(KindCBOR))
	require.NoError(t, s.Init())
	assert.ErrorIs(t, s.Select(KindJSON), ErrActive)

	require.NoError(t, s.Shutdown())
	_, _, ok = s.Active()
	assert.False(t, ok)

	require.NoError(t, s.Select(KindJSON))
	require.NoError(t, s.Init())
	k, _, _ = s.Active()
	assert.Equal(t, KindJSON, k)
}

func TestSubsystemUnsupported(t *testing.T) {
	s := NewSubsystem()
	assert.ErrorIs(t, s.Select(Kind(99)), ErrUnsupported)
	assert.ErrorIs(t, s.Init(), ErrNotSelected)
	assert.False(t, s.Supported(Kind(99)))
	assert.True(t, s.Supported(KindProto))
}

func TestSubsystemRegisterExtendsKinds(t *testing.T) {
	const kindXDR Kind = 100
	var inits, shuts int
	s := NewSubsystem()
	s.Register(kindXDR, func() Scheme { return fakeScheme{inits: &inits, shuts: &shuts} })

	require.NoError(t, s.Select(kindXDR))
	require.NoError(t, s.Init())
	require.NoError(t, s.Shutdown())
	assert.Equal(t, 1, inits)
	assert.Equal(t, 1, shuts)
}

func TestSubsystemInitFailureKeepsInactive(t *testing.T) {
	native := errors.New("native code 7")
	var inits, shuts int
	s := NewSubsystem()
	s.Register(KindJSON, func() Scheme { return fakeScheme{initErr: native, inits: &inits, shuts: &shuts} })

	require.NoError(t, s.Select(KindJSON))
	err := s.Init()
	assert.ErrorIs(t, err, native)
	_, _, ok := s.Active()
	assert.False(t, ok)

	// nothing active: shutdown is a no-op and does not reach the scheme
	require.NoError(t, s.Shutdown())
	assert.Equal(t, 0, shuts)
}

func TestSubsystemShutdownFailureClearsSelection(t *testing.T) {
	native := errors.New("native code 9")
	var inits, shuts int
	s := NewSubsystem()
	s.Register(KindJSON, func() Scheme { return fakeScheme{shutErr: native, inits: &inits, shuts: &shuts} })

	require.NoError(t, s.Select(KindJSON))
	require.NoError(t, s.Init())
	assert.ErrorIs(t, s.Shutdown(), native)
	_, _, ok := s.Active()
	assert.False(t, ok)
	require.NoError(t, s.Shutdown())
	assert.Equal(t, 1, shuts)
}
