package sqleval

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// traverse calls f on all column references inside x, where x is a Query or
// any node inside of it. Empty operands are reported as errors.
func traverse(x any, f func(*ColumnRef) error) error {
	switch v := x.(type) {
	case *Query:
		for i := range v.Select {
			if err := traverse(&v.Select[i], f); err != nil {
				return err
			}
		}
		for i := range v.Where {
			if err := traverse(&v.Where[i], f); err != nil {
				return err
			}
		}
		return nil
	case *Selector:
		return f(&v.Column)
	case *Condition:
		if err := traverse(&v.Left, f); err != nil {
			return err
		}
		return traverse(&v.Right, f)
	case *Operand:
		switch {
		case v.Literal != nil && v.Column != nil:
			return errors.New("operand has both a literal and a column")
		case v.Literal != nil:
			return nil
		case v.Column != nil:
			return f(v.Column)
		default:
			return errors.New("empty operand")
		}
	default:
		panic(fmt.Errorf("don't know how to traverse %s", reflect.TypeOf(x)))
	}
}

// validate checks the shape of a query built in code rather than decoded.
func (q *Query) validate() error {
	for _, c := range q.Where {
		if _, err := parseOperator(string(c.Op)); err != nil {
			return err
		}
	}
	return traverse(q, func(ref *ColumnRef) error {
		if ref.Name == "" {
			return errors.Errorf("column reference without a name in %s", q)
		}
		return nil
	})
}

// normalized returns q with every literal converted to the cell
// representation of its type, so Value{Int, 2} becomes Value{Int, int64(2)}.
// The where list and literals are copied; q itself is left as is.
func (q Query) normalized() (Query, error) {
	if len(q.Where) == 0 {
		return q, nil
	}
	where := make([]Condition, len(q.Where))
	for i, c := range q.Where {
		var err error
		if c.Left, err = normalizeOperand(c.Left); err != nil {
			return q, err
		}
		if c.Right, err = normalizeOperand(c.Right); err != nil {
			return q, err
		}
		where[i] = c
	}
	q.Where = where
	return q, nil
}

func normalizeOperand(o Operand) (Operand, error) {
	if o.Literal == nil {
		return o, nil
	}
	v, ok := normalizeCell(o.Literal.Data)
	if !ok || !o.Literal.Type.accepts(v) {
		return o, errors.Errorf("literal %v is not a valid %s", o.Literal.Data, o.Literal.Type)
	}
	return Lit(Value{o.Literal.Type, v}), nil
}
