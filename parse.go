package sqleval

import (
	"fmt"
	"strconv"
)

// Parse parses an SQL string of the form
//
//	SELECT ref [AS alias], ... FROM table [[AS] alias], ... [WHERE cond AND ...]
//
// into a Query. Conditions compare column references, 'text' and integer
// literals.
func Parse(sqlString string) (Query, error) {
	var result Query
	b := tokenizer{
		b:     newParsebuf(sqlString),
		peeks: nil,
	}
	if !b.eati(tKeyword, "SELECT") {
		return result, fmt.Errorf("SELECT expected, got %s", b.peek())
	}
	for {
		s, err := readSelector(&b)
		if err != nil {
			return result, err
		}
		result.Select = append(result.Select, s)
		if !b.eat(tOp, ",") {
			break
		}
	}
	if !b.eati(tKeyword, "FROM") {
		return result, fmt.Errorf("FROM expected, got %s", b.peek())
	}
	for {
		src, err := readSource(&b)
		if err != nil {
			return result, err
		}
		result.From = append(result.From, src)
		if !b.eat(tOp, ",") {
			break
		}
	}
	if b.eati(tKeyword, "WHERE") {
		for {
			c, err := readCondition(&b)
			if err != nil {
				return result, err
			}
			result.Where = append(result.Where, c)
			if !b.eati(tKeyword, "AND") {
				break
			}
		}
	}
	if b.peek().t != tEnd {
		return result, fmt.Errorf("unexpected token: %s", b.peek())
	}
	return result, nil
}

func readIdentifier(b *tokenizer) (string, error) {
	t, err := b.next()
	if err != nil {
		return "", err
	}
	if t.t != tIdentifier {
		return "", fmt.Errorf("identifier expected, got %s", t)
	}
	return t.val, nil
}

func readSelector(b *tokenizer) (Selector, error) {
	ref, err := readColumnRef(b)
	if err != nil {
		return Selector{}, err
	}
	if b.eati(tKeyword, "AS") {
		alias, err := readIdentifier(b)
		if err != nil {
			return Selector{}, fmt.Errorf("after AS: %w", err)
		}
		return Selector{Column: ref, As: alias}, nil
	}
	return Selector{Column: ref}, nil
}

func readSource(b *tokenizer) (Source, error) {
	name, err := readIdentifier(b)
	if err != nil {
		return Source{}, err
	}
	if b.eati(tKeyword, "AS") {
		alias, err := readIdentifier(b)
		if err != nil {
			return Source{}, fmt.Errorf("after AS: %w", err)
		}
		return Source{Source: name, As: alias}, nil
	}
	if b.peek().t == tIdentifier {
		alias, _ := readIdentifier(b)
		return Source{Source: name, As: alias}, nil
	}
	return Source{Source: name}, nil
}

func readColumnRef(b *tokenizer) (ColumnRef, error) {
	name1, err := readIdentifier(b)
	if err != nil {
		return ColumnRef{}, err
	}
	if b.eat(tOp, ".") {
		name2, err := readIdentifier(b)
		if err != nil {
			return ColumnRef{}, err
		}
		return ColumnRef{Table: name1, Name: name2}, nil
	}
	return ColumnRef{Name: name1}, nil
}

func readCondition(b *tokenizer) (Condition, error) {
	left, err := readOperand(b)
	if err != nil {
		return Condition{}, err
	}
	t, err := b.next()
	if err != nil {
		return Condition{}, err
	}
	if t.t != tOp {
		return Condition{}, fmt.Errorf("comparison operator expected, got %s", t)
	}
	op, err := parseOperator(t.val)
	if err != nil {
		return Condition{}, err
	}
	right, err := readOperand(b)
	if err != nil {
		return Condition{}, err
	}
	return Condition{Op: op, Left: left, Right: right}, nil
}

func readOperand(b *tokenizer) (Operand, error) {
	switch p := b.peek(); p.t {
	case tString:
		b.next()
		return Lit(TextValue(p.val)), nil
	case tNumber:
		b.next()
		n, err := strconv.ParseInt(p.val, 10, 64)
		if err != nil {
			return Operand{}, fmt.Errorf("bad number %s: %w", p.val, err)
		}
		return Lit(IntValue(n)), nil
	}
	ref, err := readColumnRef(b)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Column: &ref}, nil
}
