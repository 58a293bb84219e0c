package binary

// Attrs holds the attributes of a node. Keys are unique; the wire format
// does not preserve iteration order, so receivers must never depend on it.
type Attrs map[string]string

// NodeContent is the content of a Node: nil (empty), Bytes, or Nodes.
// The variant set is closed; no other implementations exist.
type NodeContent interface {
	isNodeContent()
}

// Bytes is raw byte content of a node.
type Bytes []byte

func (Bytes) isNodeContent() {}

// Nodes is child-node content of a node.
type Nodes []Node

func (Nodes) isNodeContent() {}

// Node is a single unit of the binary wire protocol. Nodes are value
// objects: decoding always allocates fresh, nothing is shared across the
// wire.
type Node struct {
	Tag     string
	Attrs   Attrs
	Content NodeContent
}

// NewNode creates a node with the given tag and no attributes or content.
func NewNode(tag string) *Node {
	return &Node{Tag: tag, Attrs: Attrs{}}
}

// WithAttr sets an attribute and returns the node for chaining.
func (n *Node) WithAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	n.Attrs[key] = value
	return n
}

// WithChildren sets child-node content and returns the node for chaining.
func (n *Node) WithChildren(children ...Node) *Node {
	n.Content = Nodes(children)
	return n
}

// WithBytes sets raw byte content and returns the node for chaining.
func (n *Node) WithBytes(data []byte) *Node {
	n.Content = Bytes(data)
	return n
}

// GetChildren returns the child nodes, or nil if the content is not a list.
func (n *Node) GetChildren() []Node {
	if children, ok := n.Content.(Nodes); ok {
		return children
	}
	return nil
}

// GetChildByTag returns the first child with the given tag.
func (n *Node) GetChildByTag(tag string) (*Node, bool) {
	children, ok := n.Content.(Nodes)
	if !ok {
		return nil, false
	}
	for i := range children {
		if children[i].Tag == tag {
			return &children[i], true
		}
	}
	return nil, false
}

// GetBytes returns the raw byte content, or nil if the content is not bytes.
func (n *Node) GetBytes() []byte {
	if data, ok := n.Content.(Bytes); ok {
		return data
	}
	return nil
}

// AttrString returns the value of an attribute and whether it was present.
func (n *Node) AttrString(key string) (string, bool) {
	value, ok := n.Attrs[key]
	return value, ok
}
