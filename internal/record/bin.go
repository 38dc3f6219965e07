package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
)

// Binary format constants.
const (
	BinMagic        = "BORO"
	BinVersion      = 1
	BinAlignment    = 64   // Tensor data starts on a 64-byte boundary
	BinFixedHeader  = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
	MaxHeaderSize   = 100 * 1024 * 1024
	MaxFieldsPerRec = 1 << 20
)

// binHeader is the JSON field table of a binary record.
type binHeader struct {
	RecordVersion int       `json:"record_version"`
	Optimizer     string    `json:"optimizer"`
	Items         []binItem `json:"items"`
}

type binItem struct {
	ID     string     `json:"id"`
	Fields []binField `json:"fields"`
}

type binField struct {
	Path   string   `json:"path"`
	Kind   string   `json:"kind"`
	Int    *int64   `json:"int,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	DType  string   `json:"dtype,omitempty"`
	Shape  []int    `json:"shape,omitempty"`
	Offset int64    `json:"offset,omitempty"` // Bytes from start of the data section
	Size   int64    `json:"size,omitempty"`   // Size in bytes
}

// BinCodec encodes records in the binary container format.
//
// Layout:
//
//	0x00  magic "BORO"
//	0x04  format version (uint32)
//	0x08  flags (uint32, reserved)
//	0x10  header size (uint64)
//	0x18  data size (uint64)
//	0x20  SHA-256 of the data section
//	0x40  JSON field table, zero padded to 64 bytes
//	....  tensor data
type BinCodec struct{}

// Format returns FormatBin.
func (BinCodec) Format() Format {
	return FormatBin
}

// Marshal encodes the record. Items and fields are written in sorted order
// so equal records produce identical bytes.
func (BinCodec) Marshal(rec *Record) ([]byte, error) {
	header := binHeader{
		RecordVersion: rec.Version,
		Optimizer:     rec.Optimizer,
		Items:         make([]binItem, 0, len(rec.Items)),
	}

	var data bytes.Buffer
	for _, id := range rec.IDs() {
		fields := rec.Items[id].Flatten()
		item := binItem{ID: id, Fields: make([]binField, 0, len(fields))}
		for _, f := range fields {
			bf := binField{Path: f.Path, Kind: f.Kind.String()}
			switch f.Kind {
			case KindInt:
				v := f.Int
				bf.Int = &v
			case KindFloat:
				v := f.Float
				bf.Float = &v
			case KindTensor:
				bf.DType = f.Tensor.DType
				bf.Shape = f.Tensor.Shape
				bf.Offset = int64(data.Len())
				bf.Size = int64(len(f.Tensor.Data))
				data.Write(f.Tensor.Data)
			}
			item.Fields = append(item.Fields, bf)
		}
		header.Items = append(header.Items, item)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}

	checksum := sha256.Sum256(data.Bytes())

	fixed := make([]byte, BinFixedHeader)
	copy(fixed[0:4], BinMagic)
	binary.LittleEndian.PutUint32(fixed[4:8], BinVersion)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(data.Len()))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	padding := alignPadding(int64(BinFixedHeader + len(headerJSON)))

	out := make([]byte, 0, BinFixedHeader+len(headerJSON)+int(padding)+data.Len())
	out = append(out, fixed...)
	out = append(out, headerJSON...)
	out = append(out, make([]byte, padding)...)
	out = append(out, data.Bytes()...)
	return out, nil
}

// Unmarshal decodes a record, verifying magic, version, bounds and checksum.
//
//nolint:gocyclo,cyclop // Sequential validation of a binary layout
func (BinCodec) Unmarshal(raw []byte) (*Record, error) {
	if len(raw) < BinFixedHeader {
		return nil, fmt.Errorf("%w: file too short (%d bytes)", ErrMalformed, len(raw))
	}
	if string(raw[0:4]) != BinMagic {
		return nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidMagic, raw[0:4], BinMagic)
	}
	if v := binary.LittleEndian.Uint32(raw[4:8]); v != BinVersion {
		return nil, fmt.Errorf("%w: format version %d", ErrUnsupportedVersion, v)
	}

	headerSize := binary.LittleEndian.Uint64(raw[16:24])
	dataSize := binary.LittleEndian.Uint64(raw[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], raw[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d exceeds %d", ErrMalformed, headerSize, MaxHeaderSize)
	}
	headerEnd := int64(BinFixedHeader) + int64(headerSize)
	if headerEnd > int64(len(raw)) {
		return nil, fmt.Errorf("%w: header extends past end of file", ErrMalformed)
	}
	dataStart := headerEnd + alignPadding(headerEnd)
	if dataStart+int64(dataSize) != int64(len(raw)) || dataSize > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: data section is %d bytes, file holds %d",
			ErrMalformed, dataSize, int64(len(raw))-dataStart)
	}
	data := raw[dataStart:]

	if sha256.Sum256(data) != stored {
		return nil, ErrChecksumMismatch
	}

	var header binHeader
	if err := json.Unmarshal(raw[BinFixedHeader:headerEnd], &header); err != nil {
		return nil, fmt.Errorf("%w: failed to parse header JSON: %w", ErrMalformed, err)
	}
	if err := validateBinOffsets(header.Items, int64(len(data))); err != nil {
		return nil, err
	}

	rec := &Record{
		Version:   header.RecordVersion,
		Optimizer: header.Optimizer,
		Items:     make(map[string]*Node, len(header.Items)),
	}
	for _, item := range header.Items {
		if _, dup := rec.Items[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %q", ErrMalformed, item.ID)
		}
		fields := make([]Field, 0, len(item.Fields))
		for _, bf := range item.Fields {
			f, err := bf.decode(data)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", item.ID, err)
			}
			fields = append(fields, f)
		}
		node, err := Unflatten(fields)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", item.ID, err)
		}
		rec.Items[item.ID] = node
	}
	return rec, nil
}

func (bf binField) decode(data []byte) (Field, error) {
	kind, ok := parseKind(bf.Kind)
	if !ok {
		return Field{}, fmt.Errorf("%w: field %q has unknown kind %q", ErrMalformed, bf.Path, bf.Kind)
	}
	f := Field{Path: bf.Path, Kind: kind}
	switch kind {
	case KindInt:
		if bf.Int == nil {
			return Field{}, fmt.Errorf("%w: int field %q has no value", ErrMalformed, bf.Path)
		}
		f.Int = *bf.Int
	case KindFloat:
		if bf.Float == nil {
			return Field{}, fmt.Errorf("%w: float field %q has no value", ErrMalformed, bf.Path)
		}
		f.Float = *bf.Float
	case KindTensor:
		buf := make([]byte, bf.Size)
		copy(buf, data[bf.Offset:bf.Offset+bf.Size])
		f.Tensor = &TensorData{DType: bf.DType, Shape: normalizeShape(bf.Shape), Data: buf}
	default:
		return Field{}, fmt.Errorf("%w: field %q cannot be a %s", ErrMalformed, bf.Path, kind)
	}
	return f, nil
}

// validateBinOffsets rejects negative, out-of-bounds and overlapping tensor
// regions.
func validateBinOffsets(items []binItem, dataSize int64) error {
	type region struct {
		name         string
		offset, size int64
	}
	var regions []region
	for _, item := range items {
		if len(item.Fields) > MaxFieldsPerRec {
			return fmt.Errorf("%w: item %q has %d fields", ErrMalformed, item.ID, len(item.Fields))
		}
		for _, f := range item.Fields {
			if f.Kind != KindTensor.String() {
				continue
			}
			regions = append(regions, region{name: item.ID + pathSeparator + f.Path, offset: f.Offset, size: f.Size})
		}
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].offset < regions[j].offset })
	for i, r := range regions {
		if r.offset < 0 || r.size < 0 {
			return fmt.Errorf("%w: tensor %q has offset=%d size=%d", ErrMalformed, r.name, r.offset, r.size)
		}
		if r.offset+r.size > dataSize {
			return fmt.Errorf("%w: tensor %q offset %d + size %d > data size %d",
				ErrMalformed, r.name, r.offset, r.size, dataSize)
		}
		if i < len(regions)-1 && r.offset+r.size > regions[i+1].offset {
			return fmt.Errorf("%w: tensors %q and %q overlap", ErrMalformed, r.name, regions[i+1].name)
		}
	}
	return nil
}

func alignPadding(pos int64) int64 {
	return (BinAlignment - (pos % BinAlignment)) % BinAlignment
}
