package sqleval

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ParseTable decodes a table definition: a JSON array whose first item is
// the header [[name, type], ...] and the rest are rows aligned with it.
// Column types are "int" and "str".
func ParseTable(name string, data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Errorf("table %s: invalid JSON", name)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, errors.Errorf("table %s: expected an array, got %s", name, doc.Type)
	}
	items := doc.Array()
	if len(items) == 0 {
		return nil, errors.Errorf("table %s: missing header", name)
	}

	columns, err := parseHeader(items[0])
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", name)
	}

	rows := make([]Row, 0, len(items)-1)
	for i, item := range items[1:] {
		if !item.IsArray() {
			return nil, errors.Errorf("table %s: row %d is not an array", name, i)
		}
		cells := item.Array()
		if len(cells) != len(columns) {
			return nil, errors.Errorf("table %s: row %d has %d cells, expected %d", name, i, len(cells), len(columns))
		}
		row := make(Row, len(cells))
		for j, cell := range cells {
			v, err := cellValue(columns[j].Type, cell)
			if err != nil {
				return nil, errors.Wrapf(err, "table %s: row %d, column %s", name, i, columns[j].Name)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return NewTable(name, columns, rows)
}

func parseHeader(header gjson.Result) ([]Column, error) {
	if !header.IsArray() {
		return nil, errors.New("header is not an array")
	}
	var columns []Column
	for i, h := range header.Array() {
		pair := h.Array()
		if !h.IsArray() || len(pair) != 2 || pair[0].Type != gjson.String || pair[1].Type != gjson.String {
			return nil, errors.Errorf("header item %d: expected [name, type], got %s", i, h.Raw)
		}
		typ, err := getTypeID(pair[1].Str)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", pair[0].Str)
		}
		columns = append(columns, Column{Name: pair[0].Str, Type: typ})
	}
	return columns, nil
}

func cellValue(t ValueTypeID, cell gjson.Result) (any, error) {
	switch t {
	case Int:
		if cell.Type != gjson.Number {
			return nil, errors.Errorf("expected an integer, got %s", cell.Raw)
		}
		n, err := strconv.ParseInt(cell.Raw, 10, 64)
		if err != nil {
			return nil, errors.Errorf("expected an integer, got %s", cell.Raw)
		}
		return n, nil
	case Text:
		if cell.Type != gjson.String {
			return nil, errors.Errorf("expected a string, got %s", cell.Raw)
		}
		return cell.Str, nil
	}
	return nil, errors.Errorf("unexpected column type %s", t)
}
