package sqleval

// Catalog holds loaded tables keyed by source name.
type Catalog map[string]*Table

// boundSources are the tables of a FROM list, renamed to their aliases and
// kept in source order.
type boundSources struct {
	aliases []string
	tables  []*Table
	index   map[string]int
}

func bind(from []Source, catalog Catalog) (*boundSources, error) {
	if len(from) == 0 {
		return nil, &InvalidTableError{}
	}
	b := &boundSources{index: make(map[string]int, len(from))}
	for _, src := range from {
		t, ok := catalog[src.Source]
		if !ok || t == nil {
			return nil, &InvalidTableError{Table: src.Source}
		}
		alias := src.alias()
		b.index[alias] = len(b.tables)
		b.aliases = append(b.aliases, alias)
		b.tables = append(b.tables, t.Rename(alias))
	}
	return b, nil
}

// tablesWithColumn returns the aliases of the tables that ref can refer to.
func (b *boundSources) tablesWithColumn(ref ColumnRef) ([]string, error) {
	if ref.Table != "" {
		if _, ok := b.index[ref.Table]; !ok {
			return nil, &InvalidTableError{Table: ref.Table}
		}
		return []string{ref.Table}, nil
	}
	var aliases []string
	for i, t := range b.tables {
		if len(t.byName[ref.Name]) > 0 {
			aliases = append(aliases, b.aliases[i])
		}
	}
	switch len(aliases) {
	case 0:
		return nil, &InvalidColumnError{Column: ref.String()}
	case 1:
		return aliases, nil
	}
	return nil, &AmbiguousColumnError{Column: ref.Name, Tables: aliases}
}
