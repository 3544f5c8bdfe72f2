package main

import (
	goflag "flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gaswelder/sqleval"
	"github.com/gaswelder/sqleval/runner"
)

func main() {
	cmd := rootCommand(afero.NewOsFs(), viper.New())
	cmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
	err := cmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}

func rootCommand(fs afero.Fs, v *viper.Viper) *cobra.Command {
	v.SetFs(fs)
	root := &cobra.Command{
		Use:   "sqleval <table-folder> <sql-json-file> <output-file>",
		Short: "Evaluates a select-from-where query against JSON tables",
		Args:  cobra.ExactArgs(3),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(fs, v, args[0])
			if err != nil {
				return err
			}
			return r.Run(runner.Job{Query: args[1], Output: args[2]})
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "optional config file with the settings below")
	flags.String("format", string(sqleval.FormatJSON), "output format: json or text")
	flags.Bool("pushdown", true, "apply single-table conditions before the join")
	flags.Int("parallel", runner.DefaultConfig().Parallel, "how many queries a batch evaluates at once")
	bindFlags(v, flags)

	root.AddCommand(batchCommand(fs, v), explainCommand(fs, v))
	return root
}

func batchCommand(fs afero.Fs, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <table-folder> <output-folder> <query-file>...",
		Short: "Evaluates several queries over the same tables",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(fs, v, args[0])
			if err != nil {
				return err
			}
			if err := fs.MkdirAll(args[1], 0o755); err != nil {
				return errors.Wrap(err, "creating output folder")
			}
			return r.RunBatch(cmd.Context(), runner.BatchJobs(args[1], args[2:]))
		},
	}
}

func explainCommand(fs afero.Fs, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <table-folder> <query-file>",
		Short: "Shows which conditions are applied before the join",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner(fs, v, args[0])
			if err != nil {
				return err
			}
			q, p, err := r.Explain(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sqleval.FormatQuery(q))
			fmt.Fprintln(out)
			fmt.Fprint(out, p)
			return nil
		},
	}
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix("SQLEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func loadConfig(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "reading config %s", path)
	}
	glog.V(1).Infof("using config %s", v.ConfigFileUsed())
	return nil
}

func newRunner(fs afero.Fs, v *viper.Viper, tableDir string) (*runner.Runner, error) {
	format, err := sqleval.ParseFormat(v.GetString("format"))
	if err != nil {
		return nil, err
	}
	cfg := runner.Config{
		Format:   format,
		Pushdown: v.GetBool("pushdown"),
		Parallel: v.GetInt("parallel"),
	}
	return runner.New(fs, tableDir, cfg), nil
}
