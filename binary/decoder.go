package binary

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates the input ended before a complete node was read.
	ErrTruncated = errors.New("unexpected end of input")
	// ErrUnsupportedToken indicates a token byte this decoder does not handle.
	ErrUnsupportedToken = errors.New("unsupported token")
	// ErrEmptyNode indicates a node with a zero list size, which is invalid.
	ErrEmptyNode = errors.New("empty list size for node")
)

// Unmarshal decodes one node tree from its binary wire form. Duplicate
// attribute keys are not rejected; the last value wins.
func Unmarshal(data []byte) (*Node, error) {
	d := decoder{data: data}
	return d.readNode()
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) readByte() (byte, error) {
	if d.pos+1 > len(d.data) {
		return 0, ErrTruncated
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) readUint16() (uint16, error) {
	if d.pos+2 > len(d.data) {
		return 0, ErrTruncated
	}
	v := uint16(d.data[d.pos])<<8 | uint16(d.data[d.pos+1])
	d.pos += 2
	return v, nil
}

func (d *decoder) readUint20() (uint32, error) {
	if d.pos+3 > len(d.data) {
		return 0, ErrTruncated
	}
	v := uint32(d.data[d.pos]&0x0F)<<16 | uint32(d.data[d.pos+1])<<8 | uint32(d.data[d.pos+2])
	d.pos += 3
	return v, nil
}

func (d *decoder) readRaw(length int) ([]byte, error) {
	if d.pos+length > len(d.data) {
		return nil, ErrTruncated
	}
	out := make([]byte, length)
	copy(out, d.data[d.pos:d.pos+length])
	d.pos += length
	return out, nil
}

func (d *decoder) readString() (string, error) {
	token, err := d.readByte()
	if err != nil {
		return "", err
	}
	switch token {
	case tokenListEmpty:
		return "", nil
	case tokenBinary8:
		length, err := d.readByte()
		if err != nil {
			return "", err
		}
		raw, err := d.readRaw(int(length))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case tokenBinary20:
		length, err := d.readUint20()
		if err != nil {
			return "", err
		}
		raw, err := d.readRaw(int(length))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("%w: string token %d", ErrUnsupportedToken, token)
	}
}

func (d *decoder) readListSize(token byte) (int, error) {
	switch token {
	case tokenList8:
		size, err := d.readByte()
		return int(size), err
	case tokenList16:
		size, err := d.readUint16()
		return int(size), err
	default:
		return 0, fmt.Errorf("%w: list token %d", ErrUnsupportedToken, token)
	}
}

func (d *decoder) readNode() (*Node, error) {
	listToken, err := d.readByte()
	if err != nil {
		return nil, err
	}
	listSize, err := d.readListSize(listToken)
	if err != nil {
		return nil, err
	}
	if listSize == 0 {
		return nil, ErrEmptyNode
	}

	tag, err := d.readString()
	if err != nil {
		return nil, err
	}
	attrCount := (listSize - 1) / 2
	hasContent := listSize%2 == 0

	attrs := make(Attrs, attrCount)
	for i := 0; i < attrCount; i++ {
		key, err := d.readString()
		if err != nil {
			return nil, err
		}
		value, err := d.readString()
		if err != nil {
			return nil, err
		}
		attrs[key] = value
	}

	node := &Node{Tag: tag, Attrs: attrs}
	if hasContent {
		node.Content, err = d.readContent()
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (d *decoder) readContent() (NodeContent, error) {
	token, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch token {
	case tokenListEmpty:
		return nil, nil
	case tokenBinary8:
		length, err := d.readByte()
		if err != nil {
			return nil, err
		}
		raw, err := d.readRaw(int(length))
		if err != nil {
			return nil, err
		}
		return Bytes(raw), nil
	case tokenBinary20:
		length, err := d.readUint20()
		if err != nil {
			return nil, err
		}
		raw, err := d.readRaw(int(length))
		if err != nil {
			return nil, err
		}
		return Bytes(raw), nil
	case tokenList8, tokenList16:
		count, err := d.readListSize(token)
		if err != nil {
			return nil, err
		}
		children := make(Nodes, 0, count)
		for i := 0; i < count; i++ {
			child, err := d.readNode()
			if err != nil {
				return nil, err
			}
			children = append(children, *child)
		}
		return children, nil
	default:
		return nil, fmt.Errorf("%w: content token %d", ErrUnsupportedToken, token)
	}
}
