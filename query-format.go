package sqleval

import (
	"fmt"
	"strings"
)

// FormatQuery renders a query as indented SQL text that Parse accepts.
func FormatQuery(q Query) string {
	return formatQuery(q, true)
}

// String renders the query on a single line.
func (q Query) String() string {
	return formatQuery(q, false)
}

func formatQuery(q Query, indent bool) string {
	r := strings.Builder{}
	keyword := func(k string) {
		if indent {
			if r.Len() > 0 {
				r.WriteString("\n")
			}
			r.WriteString(fmt.Sprintf("%6s", k))
			return
		}
		if r.Len() > 0 {
			r.WriteString(" ")
		}
		r.WriteString(k)
	}

	keyword("SELECT")
	for i, s := range q.Select {
		if i > 0 {
			r.WriteString(",")
		}
		r.WriteString(" ")
		r.WriteString(formatSelector(s))
	}

	keyword("FROM")
	for i, src := range q.From {
		if i > 0 {
			r.WriteString(",")
		}
		r.WriteString(" ")
		r.WriteString(formatSource(src))
	}

	for i, c := range q.Where {
		if i == 0 {
			keyword("WHERE")
		} else {
			keyword("AND")
		}
		r.WriteString(" ")
		r.WriteString(formatCondition(c))
	}
	return r.String()
}

func formatSelector(s Selector) string {
	if s.As == "" {
		return quoteRef(s.Column)
	}
	return fmt.Sprintf("%s AS %s", quoteRef(s.Column), quoteIdent(s.As))
}

func formatSource(s Source) string {
	if s.As == "" || s.As == s.Source {
		return quoteIdent(s.Source)
	}
	return fmt.Sprintf("%s AS %s", quoteIdent(s.Source), quoteIdent(s.As))
}

func formatCondition(c Condition) string {
	return fmt.Sprintf("%s %s %s", formatOperand(c.Left), c.Op, formatOperand(c.Right))
}

func formatOperand(o Operand) string {
	if o.Column != nil {
		return quoteRef(*o.Column)
	}
	return o.String()
}

func quoteRef(r ColumnRef) string {
	if r.Table == "" {
		return quoteIdent(r.Name)
	}
	return quoteIdent(r.Table) + "." + quoteIdent(r.Name)
}

var identEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteIdent(s string) string {
	return `"` + identEscaper.Replace(s) + `"`
}
