package record

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Protobuf field numbers.
//
//	message Record     { uint32 version = 1; string optimizer = 2; repeated Item items = 3; }
//	message Item       { string id = 1; Node state = 2; }
//	message Node       { repeated IntField ints = 1; repeated FloatField floats = 2;
//	                     repeated TensorField tensors = 3; repeated NodeField nodes = 4; }
//	message IntField   { string key = 1; sint64 value = 2; }
//	message FloatField { string key = 1; double value = 2; }
//	message TensorField{ string key = 1; Tensor value = 2; }
//	message NodeField  { string key = 1; Node value = 2; }
//	message Tensor     { string dtype = 1; repeated uint64 shape = 2 [packed]; bytes data = 3; }
const (
	pbRecordVersion   protowire.Number = 1
	pbRecordOptimizer protowire.Number = 2
	pbRecordItem      protowire.Number = 3

	pbKey   protowire.Number = 1
	pbValue protowire.Number = 2

	pbNodeInts    protowire.Number = 1
	pbNodeFloats  protowire.Number = 2
	pbNodeTensors protowire.Number = 3
	pbNodeNodes   protowire.Number = 4

	pbTensorDType protowire.Number = 1
	pbTensorShape protowire.Number = 2
	pbTensorData  protowire.Number = 3
)

// ProtoCodec encodes records in protobuf wire format without generated code.
type ProtoCodec struct{}

// Format returns FormatProto.
func (ProtoCodec) Format() Format {
	return FormatProto
}

// Marshal encodes the record. Map keys are emitted in sorted order.
func (ProtoCodec) Marshal(rec *Record) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, pbRecordVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(rec.Version))
	b = protowire.AppendTag(b, pbRecordOptimizer, protowire.BytesType)
	b = protowire.AppendString(b, rec.Optimizer)
	for _, id := range rec.IDs() {
		var item []byte
		item = protowire.AppendTag(item, pbKey, protowire.BytesType)
		item = protowire.AppendString(item, id)
		item = protowire.AppendTag(item, pbValue, protowire.BytesType)
		item = protowire.AppendBytes(item, appendNode(nil, rec.Items[id]))

		b = protowire.AppendTag(b, pbRecordItem, protowire.BytesType)
		b = protowire.AppendBytes(b, item)
	}
	return b, nil
}

func appendNode(b []byte, n *Node) []byte {
	for _, k := range sortedKeys(n.Ints) {
		var f []byte
		f = protowire.AppendTag(f, pbKey, protowire.BytesType)
		f = protowire.AppendString(f, k)
		f = protowire.AppendTag(f, pbValue, protowire.VarintType)
		f = protowire.AppendVarint(f, protowire.EncodeZigZag(n.Ints[k]))
		b = protowire.AppendTag(b, pbNodeInts, protowire.BytesType)
		b = protowire.AppendBytes(b, f)
	}
	for _, k := range sortedKeys(n.Floats) {
		var f []byte
		f = protowire.AppendTag(f, pbKey, protowire.BytesType)
		f = protowire.AppendString(f, k)
		f = protowire.AppendTag(f, pbValue, protowire.Fixed64Type)
		f = protowire.AppendFixed64(f, math.Float64bits(n.Floats[k]))
		b = protowire.AppendTag(b, pbNodeFloats, protowire.BytesType)
		b = protowire.AppendBytes(b, f)
	}
	for _, k := range sortedKeys(n.Tensors) {
		var f []byte
		f = protowire.AppendTag(f, pbKey, protowire.BytesType)
		f = protowire.AppendString(f, k)
		f = protowire.AppendTag(f, pbValue, protowire.BytesType)
		f = protowire.AppendBytes(f, appendTensor(nil, n.Tensors[k]))
		b = protowire.AppendTag(b, pbNodeTensors, protowire.BytesType)
		b = protowire.AppendBytes(b, f)
	}
	for _, k := range sortedKeys(n.Nodes) {
		var f []byte
		f = protowire.AppendTag(f, pbKey, protowire.BytesType)
		f = protowire.AppendString(f, k)
		f = protowire.AppendTag(f, pbValue, protowire.BytesType)
		f = protowire.AppendBytes(f, appendNode(nil, n.Nodes[k]))
		b = protowire.AppendTag(b, pbNodeNodes, protowire.BytesType)
		b = protowire.AppendBytes(b, f)
	}
	return b
}

func appendTensor(b []byte, t *TensorData) []byte {
	b = protowire.AppendTag(b, pbTensorDType, protowire.BytesType)
	b = protowire.AppendString(b, t.DType)
	if len(t.Shape) > 0 {
		var packed []byte
		for _, d := range t.Shape {
			packed = protowire.AppendVarint(packed, uint64(d))
		}
		b = protowire.AppendTag(b, pbTensorShape, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	b = protowire.AppendTag(b, pbTensorData, protowire.BytesType)
	b = protowire.AppendBytes(b, t.Data)
	return b
}

// Unmarshal decodes a record. Unknown fields are skipped.
func (ProtoCodec) Unmarshal(data []byte) (*Record, error) {
	rec := &Record{Items: make(map[string]*Node)}
	err := walkMessage(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == pbRecordVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			rec.Version = int(v)
			return n, nil
		case num == pbRecordOptimizer && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			rec.Optimizer = v
			return n, nil
		case num == pbRecordItem && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			id, node, err := decodeKeyed(v, protowire.BytesType, decodeNode)
			if err != nil {
				return 0, fmt.Errorf("item: %w", err)
			}
			if _, dup := rec.Items[id]; dup {
				return 0, fmt.Errorf("%w: duplicate item %q", ErrMalformed, id)
			}
			rec.Items[id] = node
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func decodeNode(data []byte) (*Node, error) {
	node := NewNode()
	err := walkMessage(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType || num < pbNodeInts || num > pbNodeNodes {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}

		switch num {
		case pbNodeInts:
			key, val, err := decodeKeyed(v, protowire.VarintType, func(p []byte) (int64, error) {
				x, m := protowire.ConsumeVarint(p)
				if m < 0 {
					return 0, protowire.ParseError(m)
				}
				return protowire.DecodeZigZag(x), nil
			})
			if err != nil {
				return 0, err
			}
			node.SetInt(key, val)
		case pbNodeFloats:
			key, val, err := decodeKeyed(v, protowire.Fixed64Type, func(p []byte) (float64, error) {
				x, m := protowire.ConsumeFixed64(p)
				if m < 0 {
					return 0, protowire.ParseError(m)
				}
				return math.Float64frombits(x), nil
			})
			if err != nil {
				return 0, err
			}
			node.SetFloat(key, val)
		case pbNodeTensors:
			key, val, err := decodeKeyed(v, protowire.BytesType, decodeTensor)
			if err != nil {
				return 0, err
			}
			node.SetTensor(key, val)
		case pbNodeNodes:
			key, val, err := decodeKeyed(v, protowire.BytesType, decodeNode)
			if err != nil {
				return 0, err
			}
			node.SetNode(key, val)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func decodeTensor(data []byte) (*TensorData, error) {
	t := &TensorData{Shape: []int{}}
	err := walkMessage(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == pbTensorDType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			t.DType = v
			return n, nil
		case num == pbTensorShape && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			for len(v) > 0 {
				d, m := protowire.ConsumeVarint(v)
				if m < 0 {
					return m, nil
				}
				t.Shape = append(t.Shape, int(d))
				v = v[m:]
			}
			return n, nil
		case num == pbTensorData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			t.Data = append([]byte{}, v...)
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// decodeKeyed decodes a {key = 1; value = 2} entry message.
func decodeKeyed[V any](data []byte, valueType protowire.Type, decode func([]byte) (V, error)) (string, V, error) {
	var (
		key      string
		val      V
		hasKey   bool
		hasValue bool
	)
	err := walkMessage(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == pbKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			key, hasKey = v, true
			return n, nil
		case num == pbValue && typ == valueType:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return n, nil
			}
			payload := b[:n]
			if typ == protowire.BytesType {
				payload, _ = protowire.ConsumeBytes(b)
			}
			v, err := decode(payload)
			if err != nil {
				return 0, err
			}
			val, hasValue = v, true
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return "", val, err
	}
	if !hasKey || !hasValue {
		return "", val, fmt.Errorf("%w: entry without key or value", ErrMalformed)
	}
	return key, val, nil
}

// walkMessage iterates the fields of a message. visit consumes the value
// following the tag and returns its length (negative on a wire error).
func walkMessage(data []byte, visit func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		m, err := visit(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(m))
		}
		data = data[m:]
	}
	return nil
}
