// Package loader reads query files and table files for the
// evaluator.
package loader

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	"github.com/gaswelder/sqleval"
)

// TableSuffix is appended to a source name to get its file name.
const TableSuffix = ".table.json"

// Loader reads tables from a directory. Each table file is parsed once and
// shared by every query that uses it.
type Loader struct {
	fs  afero.Fs
	dir string

	mu     sync.Mutex
	tables sqleval.Catalog
}

func New(fs afero.Fs, dir string) *Loader {
	return &Loader{fs: fs, dir: dir, tables: sqleval.Catalog{}}
}

// LoadQuery reads a query file. Files ending in .sql are parsed as SQL text,
// .json files are decoded as JSON and anything else as YAML.
func LoadQuery(fsys afero.Fs, path string) (sqleval.Query, error) {
	var q sqleval.Query
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return q, errors.Wrap(err, "reading query")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sql":
		q, err = sqleval.Parse(string(data))
		return q, errors.Wrapf(err, "parsing %s", path)
	case ".json":
		err = json.Unmarshal(data, &q)
	default:
		err = yaml.Unmarshal(data, &q)
	}
	if err != nil {
		return q, errors.Wrapf(err, "decoding %s", path)
	}
	return q, nil
}

// LoadQuery reads a query file from the loader's filesystem.
func (l *Loader) LoadQuery(path string) (sqleval.Query, error) {
	return LoadQuery(l.fs, path)
}

// LoadTables returns a catalog with every source the query names. A missing
// table file is reported as *sqleval.InvalidTableError.
func (l *Loader) LoadTables(q sqleval.Query) (sqleval.Catalog, error) {
	catalog := sqleval.Catalog{}
	for _, src := range q.From {
		if _, ok := catalog[src.Source]; ok {
			continue
		}
		t, err := l.Table(src.Source)
		if err != nil {
			return nil, err
		}
		catalog[src.Source] = t
	}
	return catalog, nil
}

// Table returns the named table, reading it on first use.
func (l *Loader) Table(name string) (*sqleval.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tables[name]; ok {
		return t, nil
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, &sqleval.InvalidTableError{Table: name}
	}
	path := filepath.Join(l.dir, name+TableSuffix)
	data, err := afero.ReadFile(l.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &sqleval.InvalidTableError{Table: name}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading table %s", name)
	}
	t, err := sqleval.ParseTable(name, data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	glog.V(1).Infof("loaded %s: %d columns, %d rows", path, len(t.Columns()), t.NumRows())
	l.tables[name] = t
	return t, nil
}
