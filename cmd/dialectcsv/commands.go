package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ajitpratap0/dialectcsv/internal/pipeline"
	"github.com/ajitpratap0/dialectcsv/pkg/compression"
	"github.com/ajitpratap0/dialectcsv/pkg/config"
	"github.com/ajitpratap0/dialectcsv/pkg/csv"
	"github.com/ajitpratap0/dialectcsv/pkg/json"
	"github.com/ajitpratap0/dialectcsv/pkg/observability"
)

func (a *app) countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count FILE",
		Short: "Print the number of data records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, span := observability.StartSpan(cmd.Context(), "count", attribute.String("path", args[0]))
			defer func() { observability.EndSpan(span, err) }()

			r, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			n, err := r.RecordCount()
			if err != nil {
				return err
			}
			span.SetAttributes(attribute.Int64("records", n))
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func (a *app) headersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers FILE",
		Short: "Print the header row, one column per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			for i, h := range r.Headers() {
				fmt.Fprintf(out, "%d\t%s\n", i, h)
			}
			return nil
		},
	}
}

func (a *app) catCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "cat FILE",
		Short: "Print records as normalised CSV or as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, span := observability.StartSpan(cmd.Context(), "cat",
				attribute.String("path", args[0]),
				attribute.String("format", format))
			defer func() { observability.EndSpan(span, err) }()

			r, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			var sink pipeline.Sink
			switch format {
			case "csv":
				w, err := csv.NewWriter(cmd.OutOrStdout(), config.NewDialect(), r.Headers(), csv.WithLogger(a.log))
				if err != nil {
					return err
				}
				defer w.Close()
				sink = w
			default:
				f, err := json.ParseFormat(format)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout(), f, r.Headers())
				defer enc.Close()
				sink = enc
			}

			_, err = pipeline.New(r, sink, a.log).Run(ctx)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv, json (one value per line) or json-array")
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	var (
		outDelimiter string
		outEncoding  string
		bom          bool
		selectCols   string
		skipErrors   bool
		codec        string
		level        string
	)
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Rewrite a file in another dialect",
		Long: `Rewrite IN as OUT. Input and output compression follow the file
extensions (.gz, .zst, .lz4, .sz, .s2, .deflate); --compression overrides
the output codec.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, span := observability.StartSpan(cmd.Context(), "convert",
				attribute.String("in", args[0]),
				attribute.String("out", args[1]))
			defer func() { observability.EndSpan(span, err) }()

			r, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			out := config.NewWriterDialect()
			out.AutoFlush = false
			out.Path = args[1]
			out.WriteBOM = bom
			if out.Delimiter, err = config.ParseChar(outDelimiter); err != nil {
				return err
			}
			if out.Encoding, err = config.ParseEncoding(outEncoding); err != nil {
				return err
			}

			headers := r.Headers()
			var sel pipeline.Transform
			if selectCols != "" {
				names := strings.Split(selectCols, ",")
				if sel, err = pipeline.SelectColumns(headers, names...); err != nil {
					return err
				}
				headers = names
			}

			alg := compression.FromPath(out.Path)
			if codec != "" {
				if alg, err = compression.ParseAlgorithm(codec); err != nil {
					return err
				}
			}
			lvl, err := compression.ParseLevel(level)
			if err != nil {
				return err
			}

			w, err := csv.Create(out, headers,
				csv.WithLogger(a.log),
				csv.WithCompression(alg, lvl))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := w.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			p := pipeline.New(r, w, a.log)
			if sel != nil {
				p.AddTransform(sel)
			}
			if skipErrors {
				p.SetErrorPolicy(pipeline.Skip)
			}

			stats, err := p.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read %d, written %d, skipped %d in %s\n",
				stats.Read, stats.Written, stats.Skipped, stats.Duration)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&outDelimiter, "out-delimiter", ",", "Output field delimiter")
	flags.StringVar(&outEncoding, "out-encoding", "utf-8", "Output encoding, selects the byte-order mark")
	flags.BoolVar(&bom, "bom", false, "Write a byte-order mark")
	flags.StringVar(&selectCols, "select", "", "Comma separated header names to keep, in output order")
	flags.BoolVar(&skipErrors, "skip-errors", false, "Skip malformed lines instead of stopping")
	flags.StringVar(&codec, "compression", "", "Output codec (none, gzip, deflate, snappy, s2, lz4, zstd); default from OUT's extension")
	flags.StringVar(&level, "level", "default", "Compression level: fastest, default, better or best")
	return cmd
}
