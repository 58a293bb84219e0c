// Package binary implements the compact binary node format used on the wire.
//
// The protocol exchanges XML-like trees called nodes: a string tag, a set of
// string attributes, and content that is either empty, raw bytes, or a list
// of child nodes. This package provides the Node type together with Marshal
// and Unmarshal, which produce and consume the exact byte layout the server
// expects.
//
// Strings and byte blobs are written as length-prefixed tokens (an 8-bit
// length form for values up to 255 bytes, a 20-bit form up to 0xFFFFF bytes).
// Dictionary token compression is not used; every string goes out raw.
//
// Example:
//
//	node := &binary.Node{
//	    Tag:   "iq",
//	    Attrs: binary.Attrs{"id": "1", "type": "get"},
//	}
//	data, err := binary.Marshal(node)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	decoded, err := binary.Unmarshal(data)
package binary
