package rpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/transport"
)

// ContactCard is handed to peers out of band so they can reach this
// process. It is serialized with the active encoding.
type ContactCard struct {
	Node      string `json:"node" cbor:"node"`
	Transport string `json:"transport" cbor:"transport"`
	Address   string `json:"address" cbor:"address"`
	Encoding  string `json:"encoding" cbor:"encoding"`
}

// Card builds the contact card for kind.
func (m *Manager) Card(kind transport.Kind) (ContactCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, err := m.readyHandle(kind)
	if err != nil {
		return ContactCard{}, err
	}
	enc, _, _ := m.enc.Active()
	return ContactCard{
		Node:      m.node,
		Transport: kind.String(),
		Address:   h.Contact().String(),
		Encoding:  enc.String(),
	}, nil
}

// ContactCard returns the card for kind encoded with the active codec.
func (m *Manager) ContactCard(kind transport.Kind) ([]byte, error) {
	card, err := m.Card(kind)
	if err != nil {
		return nil, err
	}
	_, c, ok := m.enc.Active()
	if !ok {
		return nil, &Error{Op: opQuery, Transport: kind, Code: ErrNotInitialized}
	}
	return EncodeContactCard(c, card)
}

// EncodeContactCard serializes card with c. Protobuf codecs carry it as a
// google.protobuf.Struct.
func EncodeContactCard(c codec.Codec, card ContactCard) ([]byte, error) {
	if c.ContentType() == codec.ContentTypeProto {
		s, err := structpb.NewStruct(map[string]any{
			"node":      card.Node,
			"transport": card.Transport,
			"address":   card.Address,
			"encoding":  card.Encoding,
		})
		if err != nil {
			return nil, err
		}
		return c.Marshal(s)
	}
	return c.Marshal(card)
}

// DecodeContactCard parses a card produced by EncodeContactCard and checks
// that its address belongs to the transport it names.
func DecodeContactCard(c codec.Codec, data []byte) (ContactCard, error) {
	var card ContactCard
	if c.ContentType() == codec.ContentTypeProto {
		var s structpb.Struct
		if err := c.Unmarshal(data, &s); err != nil {
			return ContactCard{}, fmt.Errorf("decode contact card: %w", err)
		}
		f := s.GetFields()
		card = ContactCard{
			Node:      f["node"].GetStringValue(),
			Transport: f["transport"].GetStringValue(),
			Address:   f["address"].GetStringValue(),
			Encoding:  f["encoding"].GetStringValue(),
		}
	} else if err := c.Unmarshal(data, &card); err != nil {
		return ContactCard{}, fmt.Errorf("decode contact card: %w", err)
	}

	if card.Address == "" {
		return ContactCard{}, errors.New("contact card has no address")
	}
	kind, _, err := transport.ParseAddress(transport.Address(card.Address))
	if err != nil {
		return ContactCard{}, err
	}
	if kind.String() != card.Transport {
		return ContactCard{}, fmt.Errorf("contact card transport %q does not match address %q", card.Transport, card.Address)
	}
	return card, nil
}
