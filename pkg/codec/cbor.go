package codec

import (
	cbor "github.com/fxamacker/cbor/v2"
)

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a deterministic CBOR codec (RFC 8949) with core profile.
func CBOR() (Codec, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return cborCodec{enc: em, dec: dm}, nil
}

// cborScheme builds its enc/dec modes at Init.
type cborScheme struct{}

// CBORScheme is the scheme for KindCBOR.
func CBORScheme() Scheme { return cborScheme{} }

func (cborScheme) Init() (Codec, error) { return CBOR() }
func (cborScheme) Shutdown() error { return nil }

func (c cborCodec) ContentType() string { return ContentTypeCBOR }
func (c cborCodec) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }
func (c cborCodec) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }
