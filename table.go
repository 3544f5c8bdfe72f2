package sqleval

import (
	"github.com/pkg/errors"
)

// Column describes a table column. Table is the column's qualifier; an empty
// qualifier stands for the name of the table that owns the column.
type Column struct {
	Table string
	Name  string
	Type  ValueTypeID
}

// Row is a list of cells aligned with the owning table's columns. Cells are
// int64 for Int columns and string for Text columns.
type Row []any

// Table is an immutable relation. Every transformation returns a new table
// and leaves the receiver untouched; rows and columns may be shared between
// tables since nobody writes to them after construction.
type Table struct {
	name    string
	columns []Column
	rows    []Row
	// byName maps an unqualified column name to its positions. It is derived
	// from columns and rebuilt by newTable.
	byName map[string][]int
}

// NewTable validates and copies the given schema and rows. Cells of Int
// columns may be given as any Go integer type.
func NewTable(name string, columns []Column, rows []Row) (*Table, error) {
	cols := append([]Column(nil), columns...)
	for i, c := range cols {
		if c.Name == "" {
			return nil, errors.Errorf("table %s: column %d has no name", name, i)
		}
		if c.Type != Int && c.Type != Text {
			return nil, errors.Errorf("table %s: column %s has unknown type %s", name, c.Name, c.Type)
		}
	}
	rs := make([]Row, len(rows))
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, errors.Errorf("table %s: row %d has %d cells, expected %d", name, i, len(r), len(cols))
		}
		row := make(Row, len(r))
		for j, cell := range r {
			v, ok := normalizeCell(cell)
			if !ok || !cols[j].Type.accepts(v) {
				return nil, errors.Errorf("table %s: row %d: %v is not a valid %s for column %s", name, i, cell, cols[j].Type, cols[j].Name)
			}
			row[j] = v
		}
		rs[i] = row
	}
	t := newTable(name, cols, rs)
	seen := make(map[ColumnRef]bool, len(cols))
	for _, c := range cols {
		key := ColumnRef{Table: t.qualifier(c), Name: c.Name}
		if seen[key] {
			return nil, errors.Errorf("table %s: duplicate column %s", name, key)
		}
		seen[key] = true
	}
	return t, nil
}

func normalizeCell(cell any) (any, bool) {
	switch v := cell.(type) {
	case int64, string:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	}
	return nil, false
}

func newTable(name string, columns []Column, rows []Row) *Table {
	byName := make(map[string][]int, len(columns))
	for i, c := range columns {
		byName[c.Name] = append(byName[c.Name], i)
	}
	return &Table{name: name, columns: columns, rows: rows, byName: byName}
}

// Name returns the table's name.
func (t *Table) Name() string {
	return t.name
}

// Columns returns a copy of the schema.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

func (t *Table) NumRows() int {
	return len(t.rows)
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) Row {
	return append(Row(nil), t.rows[i]...)
}

// Rows returns a copy of all rows.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i := range t.rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// qualifier returns the alias a column belongs to.
func (t *Table) qualifier(c Column) string {
	if c.Table == "" {
		return t.name
	}
	return c.Table
}

func (t *Table) hasQualifier(q string) bool {
	for _, c := range t.columns {
		if t.qualifier(c) == q {
			return true
		}
	}
	return false
}

// resolveColumn returns the position of the column ref refers to.
func (t *Table) resolveColumn(ref ColumnRef) (int, error) {
	positions := t.byName[ref.Name]
	if ref.Table == "" {
		switch len(positions) {
		case 0:
			return -1, &InvalidColumnError{Column: ref.String()}
		case 1:
			return positions[0], nil
		}
		tables := make([]string, len(positions))
		for i, p := range positions {
			tables[i] = t.qualifier(t.columns[p])
		}
		return -1, &AmbiguousColumnError{Column: ref.Name, Tables: tables}
	}

	var matches []int
	for _, p := range positions {
		if t.qualifier(t.columns[p]) == ref.Table {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		if !t.hasQualifier(ref.Table) {
			return -1, &InvalidTableError{Table: ref.Table}
		}
		return -1, &InvalidColumnError{Column: ref.String()}
	case 1:
		return matches[0], nil
	}
	tables := make([]string, len(matches))
	for i := range matches {
		tables[i] = ref.Table
	}
	return -1, &AmbiguousColumnError{Column: ref.String(), Tables: tables}
}

// Filter returns the rows for which all conditions hold. Conditions are
// checked in order and the first false one skips the rest for that row.
func (t *Table) Filter(conditions []Condition) (*Table, error) {
	if len(conditions) == 0 {
		return t, nil
	}
	rows := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		ok, err := t.matchAll(conditions, row)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return newTable(t.name, t.columns, rows), nil
}

// qualifiedColumns returns the schema with every qualifier spelled out.
func (t *Table) qualifiedColumns() []Column {
	cols := make([]Column, len(t.columns))
	for i, c := range t.columns {
		c.Table = t.qualifier(c)
		cols[i] = c
	}
	return cols
}

// Join returns the cross product of t and other. Rows of t form the outer
// loop, so row i*other.NumRows()+j is t's row i followed by other's row j.
func (t *Table) Join(other *Table) *Table {
	cols := append(t.qualifiedColumns(), other.qualifiedColumns()...)
	rows := make([]Row, 0, len(t.rows)*len(other.rows))
	for _, a := range t.rows {
		for _, b := range other.rows {
			rows = append(rows, concatRows(a, b))
		}
	}
	return newTable(t.name+"."+other.name, cols, rows)
}

func concatRows(a, b Row) Row {
	r := make(Row, 0, len(a)+len(b))
	r = append(r, a...)
	return append(r, b...)
}

// JoinAll folds Join over tables from left to right.
func JoinAll(tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.New("no tables to join")
	}
	joined := tables[0]
	for _, t := range tables[1:] {
		joined = joined.Join(t)
	}
	return joined, nil
}

// Project returns a table with one column per selector, in selector order,
// named after the selector's alias.
func (t *Table) Project(selectors []Selector) (*Table, error) {
	positions := make([]int, len(selectors))
	cols := make([]Column, len(selectors))
	for i, s := range selectors {
		p, err := t.resolveColumn(s.Column)
		if err != nil {
			return nil, err
		}
		name := s.As
		if name == "" {
			name = t.columns[p].Name
		}
		positions[i] = p
		cols[i] = Column{Name: name, Type: t.columns[p].Type}
	}
	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		r := make(Row, len(positions))
		for j, p := range positions {
			r[j] = row[p]
		}
		rows[i] = r
	}
	return newTable(t.name, cols, rows), nil
}

// RemoveColumn returns the table without the referenced column.
func (t *Table) RemoveColumn(ref ColumnRef) (*Table, error) {
	p, err := t.resolveColumn(ref)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(t.columns)-1)
	cols = append(cols, t.columns[:p]...)
	cols = append(cols, t.columns[p+1:]...)
	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		r := make(Row, 0, len(row)-1)
		r = append(r, row[:p]...)
		rows[i] = append(r, row[p+1:]...)
	}
	return newTable(t.name, cols, rows), nil
}

// Rename returns the same relation under another name. Unqualified columns
// follow the table's name.
func (t *Table) Rename(name string) *Table {
	return newTable(name, t.columns, t.rows)
}
