package sqleval

import (
	"fmt"

	"github.com/pkg/errors"
)

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// operandValue resolves an operand against a row of t. Column operands are
// looked up again for every row.
func (t *Table) operandValue(o Operand, row Row) (Value, error) {
	switch {
	case o.Literal != nil:
		return *o.Literal, nil
	case o.Column != nil:
		p, err := t.resolveColumn(*o.Column)
		if err != nil {
			return Value{}, err
		}
		return Value{t.columns[p].Type, row[p]}, nil
	default:
		return Value{}, errors.New("empty operand")
	}
}

func (t *Table) eval(c Condition, row Row) (bool, error) {
	a, err := t.operandValue(c.Left, row)
	if err != nil {
		return false, err
	}
	b, err := t.operandValue(c.Right, row)
	if err != nil {
		return false, err
	}
	return c.Op.apply(a, b)
}

func (t *Table) matchAll(conditions []Condition, row Row) (bool, error) {
	for _, c := range conditions {
		ok, err := t.eval(c, row)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
