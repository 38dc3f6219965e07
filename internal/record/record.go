package record

import (
	"fmt"
	"sort"
	"strings"
)

// CurrentVersion is the record layout version written by this package.
const CurrentVersion = 1

// Record is a serializable snapshot of an optimizer's state registry.
type Record struct {
	Version   int              `json:"version"`   // Layout version
	Optimizer string           `json:"optimizer"` // Name of the optimizer that produced the states
	Items     map[string]*Node `json:"items"`     // Parameter identity -> composite state
}

// New creates an empty record for the named optimizer.
func New(optimizer string) *Record {
	return &Record{
		Version:   CurrentVersion,
		Optimizer: optimizer,
		Items:     make(map[string]*Node),
	}
}

// Len returns the number of parameter states in the record.
func (r *Record) Len() int {
	return len(r.Items)
}

// IDs returns the parameter identities in sorted order.
func (r *Record) IDs() []string {
	return sortedKeys(r.Items)
}

// Validate checks keys and tensor sizes throughout the record.
func (r *Record) Validate() error {
	if r.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	for id, node := range r.Items {
		if err := validateKey(id); err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("%w: item %q is nil", ErrMalformed, id)
		}
		if err := node.validate(); err != nil {
			return fmt.Errorf("item %q: %w", id, err)
		}
	}
	return nil
}

// Kind names the type of a leaf or branch in a Node.
type Kind int

// Field kinds.
const (
	KindInt Kind = iota
	KindFloat
	KindTensor
	KindNode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTensor:
		return "tensor"
	case KindNode:
		return "node"
	default:
		return "unknown"
	}
}

// parseKind converts a kind name back into a Kind.
func parseKind(s string) (Kind, bool) {
	switch s {
	case "int":
		return KindInt, true
	case "float":
		return KindFloat, true
	case "tensor":
		return KindTensor, true
	case "node":
		return KindNode, true
	default:
		return 0, false
	}
}

// Node is one level of a composite state.
//
// Maps are allocated lazily so that an empty node and a decoded empty node
// compare equal.
type Node struct {
	Ints    map[string]int64       `json:"ints,omitempty"`
	Floats  map[string]float64     `json:"floats,omitempty"`
	Tensors map[string]*TensorData `json:"tensors,omitempty"`
	Nodes   map[string]*Node       `json:"nodes,omitempty"`
}

// NewNode creates an empty node.
func NewNode() *Node {
	return &Node{}
}

// SetInt stores an integer field and returns the node for chaining.
func (n *Node) SetInt(key string, v int64) *Node {
	if n.Ints == nil {
		n.Ints = make(map[string]int64)
	}
	n.Ints[key] = v
	return n
}

// SetFloat stores a float field.
func (n *Node) SetFloat(key string, v float64) *Node {
	if n.Floats == nil {
		n.Floats = make(map[string]float64)
	}
	n.Floats[key] = v
	return n
}

// SetTensor stores a tensor field.
func (n *Node) SetTensor(key string, t *TensorData) *Node {
	if n.Tensors == nil {
		n.Tensors = make(map[string]*TensorData)
	}
	n.Tensors[key] = t
	return n
}

// SetNode stores a child node. A nil child leaves the key absent.
func (n *Node) SetNode(key string, child *Node) *Node {
	if child == nil {
		return n
	}
	if n.Nodes == nil {
		n.Nodes = make(map[string]*Node)
	}
	n.Nodes[key] = child
	return n
}

// Int returns a required integer field.
func (n *Node) Int(key string) (int64, error) {
	v, ok := n.Ints[key]
	if !ok {
		return 0, n.missing(key, KindInt)
	}
	return v, nil
}

// Float returns a required float field.
func (n *Node) Float(key string) (float64, error) {
	v, ok := n.Floats[key]
	if !ok {
		return 0, n.missing(key, KindFloat)
	}
	return v, nil
}

// Tensor returns a required tensor field.
func (n *Node) Tensor(key string) (*TensorData, error) {
	v, ok := n.Tensors[key]
	if !ok || v == nil {
		return nil, n.missing(key, KindTensor)
	}
	return v, nil
}

// Child returns a required child node.
func (n *Node) Child(key string) (*Node, error) {
	v, ok := n.Nodes[key]
	if !ok || v == nil {
		return nil, n.missing(key, KindNode)
	}
	return v, nil
}

// missing reports a lookup failure, distinguishing a key stored under
// another kind from an absent key.
func (n *Node) missing(key string, want Kind) error {
	if got, ok := n.kindOf(key); ok {
		return &FieldError{Key: key, Kind: want, Reason: fmt.Errorf("%w: stored as %s", ErrFieldType, got)}
	}
	return &FieldError{Key: key, Kind: want, Reason: ErrFieldMissing}
}

func (n *Node) kindOf(key string) (Kind, bool) {
	if _, ok := n.Ints[key]; ok {
		return KindInt, true
	}
	if _, ok := n.Floats[key]; ok {
		return KindFloat, true
	}
	if _, ok := n.Tensors[key]; ok {
		return KindTensor, true
	}
	if _, ok := n.Nodes[key]; ok {
		return KindNode, true
	}
	return 0, false
}

// OptionalChild returns a child node or nil when absent.
func (n *Node) OptionalChild(key string) *Node {
	return n.Nodes[key]
}

func (n *Node) validate() error {
	for key := range n.Ints {
		if err := validateKey(key); err != nil {
			return err
		}
	}
	for key := range n.Floats {
		if err := validateKey(key); err != nil {
			return err
		}
	}
	for key, t := range n.Tensors {
		if err := validateKey(key); err != nil {
			return err
		}
		if t == nil {
			return &FieldError{Key: key, Kind: KindTensor, Reason: ErrMalformed}
		}
		if err := t.Validate(); err != nil {
			return &FieldError{Key: key, Kind: KindTensor, Reason: err}
		}
	}
	for key, child := range n.Nodes {
		if err := validateKey(key); err != nil {
			return err
		}
		if child == nil {
			return &FieldError{Key: key, Kind: KindNode, Reason: ErrMalformed}
		}
		if err := child.validate(); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// pathSeparator joins nested keys in flattened formats.
const pathSeparator = "/"

func validateKey(key string) error {
	if key == "" || strings.Contains(key, pathSeparator) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Field is a flattened leaf of a Node: used by formats that store one
// entry per value (bin field table, sqlite rows).
type Field struct {
	Path   string // Slash-joined keys from the item root
	Kind   Kind
	Int    int64
	Float  float64
	Tensor *TensorData
}

// Flatten returns every leaf of the node sorted by path.
func (n *Node) Flatten() []Field {
	var fields []Field
	n.flatten("", &fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func (n *Node) flatten(prefix string, out *[]Field) {
	for k, v := range n.Ints {
		*out = append(*out, Field{Path: prefix + k, Kind: KindInt, Int: v})
	}
	for k, v := range n.Floats {
		*out = append(*out, Field{Path: prefix + k, Kind: KindFloat, Float: v})
	}
	for k, v := range n.Tensors {
		*out = append(*out, Field{Path: prefix + k, Kind: KindTensor, Tensor: v})
	}
	for k, child := range n.Nodes {
		child.flatten(prefix+k+pathSeparator, out)
	}
}

// Unflatten rebuilds a node from flattened fields.
func Unflatten(fields []Field) (*Node, error) {
	root := NewNode()
	for _, f := range fields {
		parts := strings.Split(f.Path, pathSeparator)
		node := root
		for _, part := range parts[:len(parts)-1] {
			if err := validateKey(part); err != nil {
				return nil, err
			}
			child := node.OptionalChild(part)
			if child == nil {
				child = NewNode()
				node.SetNode(part, child)
			}
			node = child
		}

		leaf := parts[len(parts)-1]
		if err := validateKey(leaf); err != nil {
			return nil, err
		}
		switch f.Kind {
		case KindInt:
			node.SetInt(leaf, f.Int)
		case KindFloat:
			node.SetFloat(leaf, f.Float)
		case KindTensor:
			if f.Tensor == nil {
				return nil, fmt.Errorf("%w: tensor field %q has no data", ErrMalformed, f.Path)
			}
			node.SetTensor(leaf, f.Tensor)
		default:
			return nil, fmt.Errorf("%w: field %q has kind %s", ErrMalformed, f.Path, f.Kind)
		}
	}
	return root, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
