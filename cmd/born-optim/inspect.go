package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/born-optim/internal/record"
)

func runInspect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "", "Record format (default: from the file extension)")
	snapshot := fs.Int64("snapshot", 0, "SQLite snapshot id (default: latest)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: born-optim inspect [-format f] [-snapshot id] <record>")
		return errUsage
	}
	path := fs.Arg(0)

	f, err := resolveFormat(*format, path)
	if err != nil {
		return err
	}

	var rec *record.Record
	if f == record.FormatSQLite && *snapshot > 0 {
		rec, err = record.NewSQLiteRecorder().LoadSnapshot(path, *snapshot)
	} else {
		var recorder record.Recorder
		if recorder, err = record.RecorderFor(f); err == nil {
			rec, err = recorder.Load(path)
		}
	}
	if err != nil {
		return err
	}

	return printRecord(stdout, rec)
}

func runSnapshots(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("snapshots", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: born-optim snapshots <file.db>")
		return errUsage
	}

	snaps, err := record.NewSQLiteRecorder().Snapshots(fs.Arg(0))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOPTIMIZER\tVERSION\tITEMS\tCREATED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", s.ID, s.Optimizer, s.Version, s.Items, s.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func resolveFormat(name, path string) (record.Format, error) {
	if name != "" {
		return record.ParseFormat(name)
	}
	return record.FormatFromPath(path)
}

// printRecord writes one line per leaf. Tensors are summarized by dtype,
// shape and L2 norm.
func printRecord(w io.Writer, rec *record.Record) error {
	fmt.Fprintf(w, "optimizer: %s (version %d, %d items)\n", rec.Optimizer, rec.Version, rec.Len())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, id := range rec.IDs() {
		fmt.Fprintf(tw, "%s\t\t\n", id)
		for _, field := range rec.Items[id].Flatten() {
			value, err := describeField(field)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", id, field.Path, err)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", field.Path, field.Kind, value)
		}
	}
	return tw.Flush()
}

func describeField(f record.Field) (string, error) {
	switch f.Kind {
	case record.KindInt:
		return fmt.Sprint(f.Int), nil
	case record.KindFloat:
		return fmt.Sprintf("%g", f.Float), nil
	case record.KindTensor:
		values, err := f.Tensor.Float64s()
		if err != nil {
			return "", err
		}
		shape := make([]string, len(f.Tensor.Shape))
		for i, d := range f.Tensor.Shape {
			shape[i] = fmt.Sprint(d)
		}
		return fmt.Sprintf("%s[%s] norm=%.6g", f.Tensor.DType, strings.Join(shape, "x"), floats.Norm(values, 2)), nil
	default:
		return "", nil
	}
}
