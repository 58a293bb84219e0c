package binary

import (
	"errors"
	"fmt"
)

// ErrTooLong indicates a string or byte blob exceeds the 20-bit length form,
// the largest this format can carry.
var ErrTooLong = errors.New("value too long for 20-bit length form")

// Marshal encodes a node tree to its binary wire form.
func Marshal(node *Node) ([]byte, error) {
	e := encoder{buf: make([]byte, 0, 256)}
	if err := e.writeNode(node); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) writeByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *encoder) writeUint16(v uint16) {
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

func (e *encoder) writeUint20(v uint32) {
	e.buf = append(e.buf, byte(v>>16)&0x0F, byte(v>>8), byte(v))
}

// writeListSize emits a list-size token: LIST_8 when the size fits in one
// byte, LIST_16 otherwise.
func (e *encoder) writeListSize(size int) {
	if size <= 0xFF {
		e.writeByte(tokenList8)
		e.writeByte(byte(size))
	} else {
		e.writeByte(tokenList16)
		e.writeUint16(uint16(size))
	}
}

func (e *encoder) writeString(s string) error {
	return e.writeBytes([]byte(s))
}

func (e *encoder) writeBytes(data []byte) error {
	switch {
	case len(data) <= 0xFF:
		e.writeByte(tokenBinary8)
		e.writeByte(byte(len(data)))
	case len(data) <= maxBinary20:
		e.writeByte(tokenBinary20)
		e.writeUint20(uint32(len(data)))
	default:
		return fmt.Errorf("%w: %d bytes", ErrTooLong, len(data))
	}
	e.buf = append(e.buf, data...)
	return nil
}

func (e *encoder) writeNode(node *Node) error {
	hasContent := 0
	if node.Content != nil {
		hasContent = 1
	}
	listSize := 1 + 2*len(node.Attrs) + hasContent
	e.writeListSize(listSize)

	if err := e.writeString(node.Tag); err != nil {
		return err
	}
	for key, value := range node.Attrs {
		if err := e.writeString(key); err != nil {
			return err
		}
		if err := e.writeString(value); err != nil {
			return err
		}
	}

	if node.Content != nil {
		return e.writeContent(node.Content)
	}
	return nil
}

func (e *encoder) writeContent(content NodeContent) error {
	switch c := content.(type) {
	case Bytes:
		return e.writeBytes(c)
	case Nodes:
		e.writeListSize(len(c))
		for i := range c {
			if err := e.writeNode(&c[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown node content type %T", content)
	}
}
