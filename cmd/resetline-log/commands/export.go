package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/resetline-protocol/resetline-go/pkg/log"
)

// RunExport converts the capture at path into format ("jsonl" or
// "csv"), writing to the file named by output, or to stdout when
// output is empty.
func RunExport(path, format, output string) error {
	var export func(*log.Reader, io.Writer) error
	switch format {
	case "jsonl":
		export = exportJSONL
	case "csv":
		export = exportCSV
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer reader.Close()

	if output == "" {
		return export(reader, os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := export(reader, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// exportJSONL writes one JSON document per event, in capture order.
func exportJSONL(reader *log.Reader, w io.Writer) error {
	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
}

// csvHeader names the flattened columns of the CSV form. Columns that
// only exist for some event kinds (op, line, result) stay empty on the
// other rows.
var csvHeader = []string{"timestamp", "connection_id", "category", "controller", "type", "op", "line", "result"}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvRow flattens one event. The type column mirrors which detail
// struct is set; registration rows distinguish register/unregister.
func csvRow(event log.Event) []string {
	kind, op, line, result := "unknown", "", "", ""
	switch {
	case event.Registration != nil:
		kind = "unregister"
		if event.Registration.Registered {
			kind = "register"
		}
		if code := event.Registration.Code; code != 0 {
			result = strconv.FormatInt(int64(code), 10)
		}
	case event.Dispatch != nil:
		kind = "dispatch"
		op = event.Dispatch.Op
		line = strconv.FormatUint(event.Dispatch.Line, 10)
		result = strconv.FormatInt(int64(event.Dispatch.Result), 10)
	case event.Frame != nil:
		kind = "frame"
	case event.State != nil:
		kind = "state"
	case event.Error != nil:
		kind = "error"
		if event.Error.Code != nil {
			result = strconv.FormatInt(int64(*event.Error.Code), 10)
		}
	}
	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.ConnectionID,
		event.Category.String(),
		event.Controller,
		kind,
		op,
		line,
		result,
	}
}
