package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/dialectcsv/pkg/config"
	"github.com/ajitpratap0/dialectcsv/pkg/csv"
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
	"github.com/ajitpratap0/dialectcsv/pkg/logger"
	"github.com/ajitpratap0/dialectcsv/pkg/metrics"
	"github.com/ajitpratap0/dialectcsv/pkg/observability"
)

var version = "0.1.0"

const envPrefix = "DIALECTCSV"

// app carries state shared by every subcommand of one invocation.
type app struct {
	v        *viper.Viper
	log      *zap.Logger
	shutdown observability.ShutdownFunc
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "dialectcsv",
		Short: "Read, inspect and convert CSV files of any dialect",
		Long: `dialectcsv reads and writes delimited text files whose delimiter, quote
character, header row, byte-order mark and strictness are all configurable.

Every flag can also be set through a DIALECTCSV_<FLAG> environment variable
(dashes become underscores) or a YAML file passed with --config.

Example:
  dialectcsv count --delimiter ';' data.csv
  dialectcsv convert --out-delimiter tab --select id,name in.csv.gz out.tsv`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML file with flag values")
	flags.String("dialect", "", "YAML dialect profile used as the base dialect")
	flags.String("delimiter", ",", "Field delimiter (a single byte, or tab, space, pipe, semicolon)")
	flags.String("enclosure", `"`, "Quote character")
	flags.String("escape", `"`, "Escape character (doubled quotes are the only escaping performed)")
	flags.Bool("no-header", false, "Treat the first line as data")
	flags.Int("offset", 0, "Lines to skip before the header or data")
	flags.Int("limit", 0, "Maximum number of records to read (0 = unbounded)")
	flags.String("encoding", "utf-8", "Text encoding, used to recognise and write a byte-order mark")
	flags.Bool("strict", false, "Reject bare quotes and rows whose width differs from the header")
	flags.Bool("skip-empty", false, "Skip blank lines")
	flags.Bool("trim", false, "Trim leading whitespace from unquoted fields")
	flags.Bool("preserve-quotes", false, "Keep enclosing quotes in field values")
	flags.Bool("mmap", false, "Memory-map uncompressed input files")
	flags.String("log-level", "error", "Log level (debug, info, warn, error)")
	flags.Bool("trace", false, "Export trace spans to stderr")
	flags.Bool("metrics", false, "Print collected metrics to stderr on exit")
	_ = a.v.BindPFlags(flags)

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.countCmd(),
		a.headersCmd(),
		a.catCmd(),
		a.convertCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", path)
		}
	}

	log, err := logger.New(logger.Config{
		Level:    a.v.GetString("log-level"),
		Encoding: "console",
	})
	if err != nil {
		return err
	}
	a.log = log
	logger.SetGlobal(log)

	if a.v.GetBool("trace") {
		cfg := observability.DefaultTracingConfig()
		cfg.ServiceVersion = version
		cfg.Writer = cmd.ErrOrStderr()
		if a.shutdown, err = observability.InitTracing(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	var err error
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = a.shutdown(ctx)
	}
	if a.v.GetBool("metrics") {
		samples, merr := metrics.Snapshot()
		if merr != nil && err == nil {
			err = merr
		}
		enc := json.NewEncoder(cmd.ErrOrStderr())
		for _, s := range samples {
			if eerr := enc.Encode(s); eerr != nil && err == nil {
				err = eerr
			}
		}
	}
	_ = a.log.Sync()
	return err
}

// dialect builds the input dialect from the profile, config file,
// environment and flags, in increasing order of precedence.
func (a *app) dialect(path string) (config.Dialect, error) {
	d := config.NewDialect()
	if profile := a.v.GetString("dialect"); profile != "" {
		var err error
		if d, err = config.LoadDialect(profile); err != nil {
			return d, err
		}
	}

	chars := []struct {
		key string
		dst *config.Char
	}{
		{"delimiter", &d.Delimiter},
		{"enclosure", &d.Enclosure},
		{"escape", &d.Escape},
	}
	for _, c := range chars {
		if !a.v.IsSet(c.key) {
			continue
		}
		ch, err := config.ParseChar(a.v.GetString(c.key))
		if err != nil {
			return d, err
		}
		*c.dst = ch
	}

	if a.v.IsSet("encoding") {
		enc, err := config.ParseEncoding(a.v.GetString("encoding"))
		if err != nil {
			return d, err
		}
		d.Encoding = enc
	}
	if a.v.IsSet("no-header") {
		d.HasHeader = !a.v.GetBool("no-header")
	}
	if a.v.IsSet("offset") {
		d.Offset = a.v.GetInt("offset")
	}
	if a.v.IsSet("limit") {
		d.Limit = a.v.GetInt("limit")
	}
	if a.v.IsSet("strict") {
		d.StrictMode = a.v.GetBool("strict")
	}
	if a.v.IsSet("skip-empty") {
		d.SkipEmptyLines = a.v.GetBool("skip-empty")
	}
	if a.v.IsSet("trim") {
		d.TrimFields = a.v.GetBool("trim")
	}
	if a.v.IsSet("preserve-quotes") {
		d.PreserveQuotes = a.v.GetBool("preserve-quotes")
	}

	d.Path = path
	return d, d.Validate()
}

func (a *app) open(path string) (*csv.Reader, error) {
	d, err := a.dialect(path)
	if err != nil {
		return nil, err
	}
	return csv.Open(d,
		csv.WithLogger(a.log),
		csv.WithMmap(a.v.GetBool("mmap")))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dialectcsv v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
