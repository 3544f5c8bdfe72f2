package sqleval

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Engine evaluates queries against a catalog of loaded tables. Tables are
// never modified, so one engine may serve several goroutines.
type Engine struct {
	tables   Catalog
	pushdown bool
}

type Option func(*Engine)

// WithPushdown sets whether single-table conditions are applied to their
// table before the join. It is on by default.
func WithPushdown(on bool) Option {
	return func(e *Engine) {
		e.pushdown = on
	}
}

// WithoutPushdown applies the whole where list after the join.
func WithoutPushdown() Option {
	return WithPushdown(false)
}

// New returns an engine over the given tables.
func New(tables Catalog, opts ...Option) *Engine {
	e := &Engine{tables: tables, pushdown: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate is a shorthand for New(tables, opts...).Evaluate(q).
func Evaluate(q Query, tables Catalog, opts ...Option) (*Table, error) {
	return New(tables, opts...).Evaluate(q)
}

// Plan tells which where conditions are applied before the join.
type Plan struct {
	// Pushed conditions reference exactly one table and are applied to it
	// before the join, in where order.
	Pushed []PushedCondition
	// Residual conditions reference no table or several and are applied to
	// the joined table.
	Residual []Condition
}

type PushedCondition struct {
	Table     string
	Condition Condition
}

func (p *Plan) String() string {
	b := strings.Builder{}
	for _, pc := range p.Pushed {
		b.WriteString(fmt.Sprintf("%s: %s\n", pc.Table, pc.Condition))
	}
	for _, c := range p.Residual {
		b.WriteString(fmt.Sprintf("after join: %s\n", c))
	}
	return b.String()
}

// Plan binds the query's sources and splits its where list without running
// anything.
func (e *Engine) Plan(q Query) (*Plan, error) {
	q, b, err := e.prepare(q)
	if err != nil {
		return nil, err
	}
	return e.plan(q, b)
}

// Evaluate runs the query and returns the result table. Errors that come
// from the query itself implement EvalError.
func (e *Engine) Evaluate(q Query) (*Table, error) {
	q, b, err := e.prepare(q)
	if err != nil {
		return nil, err
	}
	p, err := e.plan(q, b)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("%s: %d conditions pushed down, %d after join", q, len(p.Pushed), len(p.Residual))

	tables := append([]*Table(nil), b.tables...)
	for _, pc := range p.Pushed {
		i := b.index[pc.Table]
		filtered, err := tables[i].Filter([]Condition{pc.Condition})
		if err != nil {
			return nil, err
		}
		glog.V(2).Infof("%s on %s: %s -> %s rows", pc.Condition, pc.Table,
			humanize.Comma(int64(tables[i].NumRows())), humanize.Comma(int64(filtered.NumRows())))
		tables[i] = filtered
	}

	joined, err := JoinAll(tables)
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("joined %d tables into %s rows", len(tables), humanize.Comma(int64(joined.NumRows())))

	filtered, err := joined.Filter(p.Residual)
	if err != nil {
		return nil, err
	}
	return filtered.Project(q.Select)
}

// prepare checks the query, normalizes its literals and binds its sources.
func (e *Engine) prepare(q Query) (Query, *boundSources, error) {
	if err := q.validate(); err != nil {
		return q, nil, err
	}
	q, err := q.normalized()
	if err != nil {
		return q, nil, err
	}
	for i, src := range q.From {
		for _, prev := range q.From[:i] {
			if prev.alias() == src.alias() {
				return q, nil, errors.Errorf("table alias %q is used more than once", src.alias())
			}
		}
	}
	b, err := bind(q.From, e.tables)
	return q, b, err
}

func (e *Engine) plan(q Query, b *boundSources) (*Plan, error) {
	p := &Plan{}
	if !e.pushdown {
		p.Residual = q.Where
		return p, nil
	}
	for _, c := range q.Where {
		tables, err := conditionTables(c, b)
		if err != nil {
			return nil, err
		}
		if len(tables) == 1 {
			p.Pushed = append(p.Pushed, PushedCondition{Table: tables[0], Condition: c})
		} else {
			p.Residual = append(p.Residual, c)
		}
	}
	return p, nil
}

// conditionTables returns the distinct aliases a condition's column operands
// refer to.
func conditionTables(c Condition, b *boundSources) ([]string, error) {
	var tables []string
	err := traverse(&c, func(ref *ColumnRef) error {
		aliases, err := b.tablesWithColumn(*ref)
		if err != nil {
			return err
		}
		for _, a := range aliases {
			if !slices.Contains(tables, a) {
				tables = append(tables, a)
			}
		}
		return nil
	})
	return tables, err
}
