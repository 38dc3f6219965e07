// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package record saves and loads optimizer state snapshots.
//
// A Record maps parameter identities to a tree of named ints, floats and
// tensors. Four storage formats are available:
//
//	json    human-readable, tensors as base64 bytes
//	bin     "BORO" container: fixed header, JSON field table, aligned tensor data, SHA-256
//	proto   protobuf wire encoding
//	sqlite  one row per field; every save appends a snapshot
//
// Example:
//
//	rec, err := optimizer.ToRecord()
//	recorder, err := record.RecorderFor(record.FormatSQLite)
//	err = recorder.Save(rec, "runs.db")
package record

import (
	"github.com/born-ml/born-optim/internal/record"
	"github.com/born-ml/born-optim/internal/tensor"
)

// CurrentVersion is the record layout version written by this library.
const CurrentVersion = record.CurrentVersion

// Record is an optimizer state snapshot.
type Record = record.Record

// Node is one level of a record tree.
type Node = record.Node

// TensorData is a tensor stored as little-endian bytes.
type TensorData = record.TensorData

// New creates an empty record for the named optimizer.
func New(optimizer string) *Record {
	return record.New(optimizer)
}

// NewNode creates an empty node.
func NewNode() *Node {
	return record.NewNode()
}

// FromTensor captures a tensor's dtype, shape and bytes.
func FromTensor[T tensor.Float, B tensor.Backend](t *tensor.Tensor[T, B]) *TensorData {
	return record.FromTensor(t)
}

// ToTensor rebuilds a tensor on the backend's default device.
func ToTensor[T tensor.Float, B tensor.Backend](t *TensorData, backend B) (*tensor.Tensor[T, B], error) {
	return record.ToTensor[T](t, backend)
}

// Formats

// Format names a storage format.
type Format = record.Format

// Storage formats.
const (
	FormatJSON   Format = record.FormatJSON
	FormatBin    Format = record.FormatBin
	FormatProto  Format = record.FormatProto
	FormatSQLite Format = record.FormatSQLite
)

// Recorder saves and loads records at a path.
type Recorder = record.Recorder

// Snapshot describes one stored SQLite record.
type Snapshot = record.Snapshot

// SQLiteRecorder stores records in an SQLite database.
type SQLiteRecorder = record.SQLiteRecorder

// RecorderFor returns the recorder for format.
func RecorderFor(format Format) (Recorder, error) {
	return record.RecorderFor(format)
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	return record.ParseFormat(s)
}

// FormatFromPath infers a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return record.FormatFromPath(path)
}

// NewSQLiteRecorder creates an SQLite recorder.
func NewSQLiteRecorder() *SQLiteRecorder {
	return record.NewSQLiteRecorder()
}

// Errors

// FieldError reports a missing or mistyped record field.
type FieldError = record.FieldError

// Sentinel errors.
var (
	ErrFieldMissing       = record.ErrFieldMissing
	ErrFieldType          = record.ErrFieldType
	ErrInvalidKey         = record.ErrInvalidKey
	ErrInvalidMagic       = record.ErrInvalidMagic
	ErrUnsupportedVersion = record.ErrUnsupportedVersion
	ErrChecksumMismatch   = record.ErrChecksumMismatch
	ErrSizeMismatch       = record.ErrSizeMismatch
	ErrUnknownFormat      = record.ErrUnknownFormat
	ErrMalformed          = record.ErrMalformed
	ErrNoRecord           = record.ErrNoRecord
)
