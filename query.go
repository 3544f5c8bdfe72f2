package sqleval

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Query is a select-from-where query as read from a query file or parsed
// from SQL text.
type Query struct {
	Select []Selector  `json:"select"`
	From   []Source    `json:"from"`
	Where  []Condition `json:"where"`
}

// Selector is one item of the select list.
type Selector struct {
	Column ColumnRef `json:"column"`
	// As is the output column name. Empty means the column's own name.
	As string `json:"as"`
}

// Source introduces a table under an alias.
type Source struct {
	Source string `json:"source"`
	As     string `json:"as"`
}

// alias returns the name the source is referred to by in the query.
func (s Source) alias() string {
	if s.As == "" {
		return s.Source
	}
	return s.As
}

// ColumnRef refers to a column, optionally qualified with a table alias.
type ColumnRef struct {
	Table string `json:"table"`
	Name  string `json:"name"`
}

func (r ColumnRef) String() string {
	if r.Table == "" {
		return r.Name
	}
	return r.Table + "." + r.Name
}

// Condition is a single comparison from the where list. The where list is a
// conjunction of its conditions.
type Condition struct {
	Op    Operator `json:"op"`
	Left  Operand  `json:"left"`
	Right Operand  `json:"right"`
}

// Operand is either a literal or a column reference. Exactly one of the
// fields is set.
type Operand struct {
	Literal *Value
	Column  *ColumnRef
}

// Lit and Col build operands.
func Lit(v Value) Operand { return Operand{Literal: &v} }

func Col(table, name string) Operand {
	return Operand{Column: &ColumnRef{Table: table, Name: name}}
}

func (o Operand) String() string {
	if o.Literal != nil {
		return o.Literal.String()
	}
	if o.Column != nil {
		return o.Column.String()
	}
	return "<nil>"
}

// UnmarshalJSON decodes {"literal": v} or {"column": {...}}. The literal's
// type is fixed here from its JSON kind.
func (o *Operand) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return errors.Errorf("operand must be an object, got %s", res.Raw)
	}
	lit := res.Get("literal")
	col := res.Get("column")
	switch {
	case lit.Exists() && col.Exists():
		return errors.New("operand has both a literal and a column")
	case lit.Exists():
		v, err := literalValue(lit)
		if err != nil {
			return err
		}
		*o = Operand{Literal: &v}
	case col.Exists():
		var ref ColumnRef
		if err := json.Unmarshal([]byte(col.Raw), &ref); err != nil {
			return errors.Wrap(err, "bad column reference")
		}
		if ref.Name == "" {
			return errors.Errorf("column reference without a name: %s", col.Raw)
		}
		*o = Operand{Column: &ref}
	default:
		return errors.Errorf("operand has neither a literal nor a column: %s", res.Raw)
	}
	return nil
}

func literalValue(r gjson.Result) (Value, error) {
	switch r.Type {
	case gjson.String:
		return TextValue(r.Str), nil
	case gjson.Number:
		n, err := strconv.ParseInt(r.Raw, 10, 64)
		if err != nil {
			return Value{}, errors.Errorf("unsupported numeric literal %s", r.Raw)
		}
		return IntValue(n), nil
	default:
		return Value{}, errors.Errorf("unsupported literal %s", r.Raw)
	}
}

// Operator is a comparison operator.
type Operator string

const (
	OpEq Operator = "="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="
)

// parseOperator accepts the operator spellings allowed in queries.
func parseOperator(s string) (Operator, error) {
	switch s {
	case "=", "!=", "<", "<=", ">", ">=":
		return Operator(s), nil
	case "<>":
		return OpNe, nil
	}
	return "", errors.Errorf("unknown operator %q", s)
}

func (op *Operator) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "operator must be a string")
	}
	parsed, err := parseOperator(s)
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}
