package sqleval

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// Format selects how a result table is written.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatText:
		return Format(s), nil
	}
	return "", errors.Errorf("unknown output format %q, expected %s or %s", s, FormatJSON, FormatText)
}

// WriteResult writes either the table or the evaluation error, never both.
// Errors that aren't EvalErrors are returned instead of being written.
func WriteResult(w io.Writer, t *Table, evalErr error, f Format) error {
	if evalErr != nil {
		var e EvalError
		if !errors.As(evalErr, &e) {
			return evalErr
		}
		return WriteError(w, e)
	}
	switch f {
	case FormatText:
		return RenderText(w, t)
	default:
		return WriteTable(w, t)
	}
}

// WriteError writes the error message on its own line.
func WriteError(w io.Writer, err error) error {
	_, werr := fmt.Fprintln(w, err.Error())
	return werr
}

// WriteTable writes t in the table file format, one header or row per line:
//
//	[
//	    [["name","str"],["id","int"]],
//	    ["a",1]
//	]
func WriteTable(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	header := make([][2]string, len(t.columns))
	for i, c := range t.columns {
		header[i] = [2]string{c.Name, c.Type.String()}
	}
	bw.WriteString("[\n    ")
	if err := writeJSON(bw, header); err != nil {
		return err
	}
	for _, row := range t.rows {
		bw.WriteString(",\n    ")
		if err := writeJSON(bw, row); err != nil {
			return err
		}
	}
	bw.WriteString("\n]\n")
	return bw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	// Keep "<", ">" and "&" readable.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encoding result")
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}

// RenderText draws t as an ASCII table.
func RenderText(w io.Writer, t *Table) error {
	table := tablewriter.NewWriter(w)
	header := make([]any, len(t.columns))
	for i, c := range t.columns {
		header[i] = c.Name
	}
	table.Header(header...)
	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = fmt.Sprintf("%v", cell)
		}
		if err := table.Append(cells); err != nil {
			return errors.Wrap(err, "rendering result")
		}
	}
	return table.Render()
}
