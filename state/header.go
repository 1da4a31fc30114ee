package state

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// StateHeader is stored under KeyState using the protobuf wire format:
//
//	1: chain_id  (string)
//	2: height    (uint64)
//	3: root_hash (bytes)
//	4: hash      (bytes)
type StateHeader struct {
	ChainId  string
	Height   uint64
	RootHash []byte
	Hash     []byte
}

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

func (h *StateHeader) Clone() *StateHeader {
	n := &StateHeader{
		ChainId: h.ChainId,
		Height:  h.Height,
	}
	if h.RootHash != nil {
		n.RootHash = append([]byte{}, h.RootHash...)
	}
	if h.Hash != nil {
		n.Hash = append([]byte{}, h.Hash...)
	}
	return n
}

func (h *StateHeader) Marshal() []byte {
	var b []byte
	if h.ChainId != "" {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, h.ChainId)
	}
	if h.Height != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, h.Height)
	}
	if len(h.RootHash) != 0 {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, h.RootHash)
	}
	if len(h.Hash) != 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, h.Hash)
	}
	return b
}

func (h *StateHeader) Unmarshal(b []byte) error {
	*h = StateHeader{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			h.ChainId = v
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			h.Height = v
			b = b[n:]
		case (num == 3 || num == 4) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			if num == 3 {
				h.RootHash = append([]byte{}, v...)
			} else {
				h.Hash = append([]byte{}, v...)
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}
