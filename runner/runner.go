// Package runner evaluates query files and writes their results.
package runner

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/gaswelder/sqleval"
	"github.com/gaswelder/sqleval/loader"
)

// Config controls how queries are evaluated and written.
type Config struct {
	Format   sqleval.Format
	Pushdown bool
	// Parallel limits how many queries a batch evaluates at once.
	Parallel int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{Format: sqleval.FormatJSON, Pushdown: true, Parallel: 4}
}

// Job is a query file and the file its result goes to.
type Job struct {
	Query  string
	Output string
}

// Runner reads queries and tables through a loader and writes results to fs.
type Runner struct {
	fs     afero.Fs
	loader *loader.Loader
	cfg    Config
}

func New(fs afero.Fs, tableDir string, cfg Config) *Runner {
	return &Runner{fs: fs, loader: loader.New(fs, tableDir), cfg: cfg}
}

// Evaluate loads the query and its tables and evaluates it. The returned
// table and EvalError are both results; any other error means the query
// could not be run.
func (r *Runner) Evaluate(path string) (*sqleval.Table, error) {
	q, err := r.loader.LoadQuery(path)
	if err != nil {
		return nil, err
	}
	tables, err := r.loader.LoadTables(q)
	if err != nil {
		return nil, err
	}
	return sqleval.Evaluate(q, tables, sqleval.WithPushdown(r.cfg.Pushdown))
}

// Explain loads the query and its tables and returns the evaluation plan.
func (r *Runner) Explain(path string) (sqleval.Query, *sqleval.Plan, error) {
	q, err := r.loader.LoadQuery(path)
	if err != nil {
		return q, nil, err
	}
	tables, err := r.loader.LoadTables(q)
	if err != nil {
		return q, nil, err
	}
	p, err := sqleval.New(tables, sqleval.WithPushdown(r.cfg.Pushdown)).Plan(q)
	return q, p, err
}

// Run evaluates one job and writes exactly one of the result table or the
// evaluation error to its output file.
func (r *Runner) Run(job Job) error {
	t, evalErr := r.Evaluate(job.Query)
	var e sqleval.EvalError
	if evalErr != nil && !errors.As(evalErr, &e) {
		return errors.Wrapf(evalErr, "evaluating %s", job.Query)
	}

	f, err := r.fs.Create(job.Output)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	if err := sqleval.WriteResult(f, t, evalErr, r.cfg.Format); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", job.Output)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "writing %s", job.Output)
	}

	if evalErr != nil {
		glog.Warningf("%s: %v", job.Query, evalErr)
	} else {
		glog.V(1).Infof("%s: %d rows written to %s", job.Query, t.NumRows(), job.Output)
	}
	return nil
}

// RunBatch runs the jobs in parallel. Tables are loaded once and shared. The
// first job that fails to run cancels the jobs that haven't started yet.
func (r *Runner) RunBatch(ctx context.Context, jobs []Job) error {
	g, ctx := errgroup.WithContext(ctx)
	if r.cfg.Parallel > 0 {
		g.SetLimit(r.cfg.Parallel)
	}
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return r.Run(job)
		})
	}
	return g.Wait()
}

// BatchJobs names an output file in outDir for every query file.
func BatchJobs(outDir string, queries []string) []Job {
	jobs := make([]Job, len(queries))
	for i, q := range queries {
		base := filepath.Base(q)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		jobs[i] = Job{Query: q, Output: filepath.Join(outDir, base+".out")}
	}
	return jobs
}
