// Package record provides the self-describing snapshot format for optimizer
// state and the recorders that persist it.
//
// A Record maps parameter identities to a tree of named fields:
//
//	Record
//	  Items["<param id>"] = Node{
//	      Nodes["weight_decay"] = Node{Tensors["grad_last_step"]}   // optional
//	      Nodes["lr_decay"]     = Node{Ints["time"], Tensors["sum"]}
//	  }
//
// An optional sub-state that is absent is simply a missing key; no sentinel
// values are ever written.
//
// Supported formats:
//   - json:   encoding/json, tensors as base64 little-endian bytes
//   - bin:    64-byte fixed header, JSON field table, aligned tensor data, SHA-256 checksum
//   - proto:  protobuf wire format
//   - sqlite: one row per field, every Save appends a snapshot
//
// Example:
//
//	rec, _ := optimizer.ToRecord()
//	recorder, _ := record.RecorderFor(record.FormatBin)
//	if err := recorder.Save(rec, "optim.bin"); err != nil {
//	    log.Fatal(err)
//	}
package record
