package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestJSONCodec(t *testing.T) {
	c := JSON()
	b, err := c.Marshal(map[string]any{"a": 1, "b": "x"})
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, float64(1), out["a"])
	assert.Equal(t, "x", out["b"])
	assert.Equal(t, ContentTypeJSON, c.ContentType())
}

func TestCBORCodecDeterministic(t *testing.T) {
	c, err := CBOR()
	require.NoError(t, err)
	in := map[string]any{"z": 1, "a": 2, "m": "x"}
	b1, err := c.Marshal(in)
	require.NoError(t, err)
	b2, err := c.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)

	var out map[string]any
	require.NoError(t, c.Unmarshal(b1, &out))
	assert.EqualValues(t, 2, out["a"])
}

func TestProtoCodec(t *testing.T) {
	c := Proto()
	s, err := structpb.NewStruct(map[string]any{"k": "v"})
	require.NoError(t, err)
	b, err := c.Marshal(s)
	require.NoError(t, err)
	var out structpb.Struct
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, "v", out.Fields["k"].GetStringValue())

	_, err = c.Marshal(map[string]any{"k": "v"})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"cbor": KindCBOR, " Protobuf ": KindProto, "proto": KindProto, "JSON": KindJSON} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("xdr")
	assert.Error(t, err)
	assert.Equal(t, "unknown(42)", Kind(42).String())
}

func TestNewByKind(t *testing.T) {
	want := map[Kind]string{KindCBOR: ContentTypeCBOR, KindProto: ContentTypeProto, KindJSON: ContentTypeJSON}
	for _, k := range Kinds() {
		c, err := New(k)
		require.NoError(t, err)
		assert.Equal(t, want[k], c.ContentType())
	}
	_, err := New(KindUnknown)
	assert.ErrorIs(t, err, ErrUnsupported)
}
