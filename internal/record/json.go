package record

import (
	"encoding/json"
	"fmt"
)

// JSONCodec encodes records as indented JSON.
type JSONCodec struct{}

// Format returns FormatJSON.
func (JSONCodec) Format() Format {
	return FormatJSON
}

// Marshal encodes the record.
func (JSONCodec) Marshal(rec *Record) ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

// Unmarshal decodes a record.
func (JSONCodec) Unmarshal(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if rec.Items == nil {
		rec.Items = make(map[string]*Node)
	}
	for _, node := range rec.Items {
		normalizeNode(node)
	}
	return &rec, nil
}

func normalizeNode(n *Node) {
	if n == nil {
		return
	}
	for _, t := range n.Tensors {
		if t != nil {
			t.Shape = normalizeShape(t.Shape)
		}
	}
	for _, child := range n.Nodes {
		normalizeNode(child)
	}
}
