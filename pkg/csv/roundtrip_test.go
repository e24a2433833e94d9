package csv

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dialectcsv/pkg/arena"
	"github.com/ajitpratap0/dialectcsv/pkg/config"
	tu "github.com/ajitpratap0/dialectcsv/pkg/testutil"
)

func roundTripRows(n int) [][]string {
	tricky := []string{
		"plain",
		"comma, inside",
		`quote " inside`,
		"line\nbreak",
		"crlf\r\nbreak",
		"",
		`""`,
		"  leading",
		"trail ",
		"tab\t",
		" \t both \t",
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{
			fmt.Sprintf("%d", i),
			tricky[i%len(tricky)],
			strings.Repeat("z", i%5+1),
		}
	}
	return rows
}

func TestRoundTrip(t *testing.T) {
	headers := []string{"id", "text", "pad"}
	rows := roundTripRows(50)

	tests := []struct {
		name   string
		file   string
		mutate func(*config.Dialect)
	}{
		{name: "default", file: "data.csv"},
		{name: "bom", file: "bom.csv", mutate: func(d *config.Dialect) { d.WriteBOM = true }},
		{name: "semicolon", file: "semi.csv", mutate: func(d *config.Dialect) { d.Delimiter = ';' }},
		{name: "strict", file: "strict.csv", mutate: func(d *config.Dialect) { d.StrictMode = true }},
		{name: "trim", file: "trim.csv", mutate: func(d *config.Dialect) { d.TrimFields = true }},
		{name: "tab trim", file: "trim.tsv", mutate: func(d *config.Dialect) {
			d.Delimiter = '\t'
			d.TrimFields = true
		}},
		{name: "gzip", file: "data.csv.gz"},
		{name: "zstd", file: "data.csv.zst"},
		{name: "lz4", file: "data.csv.lz4"},
		{name: "snappy", file: "data.csv.snappy"},
		{name: "s2", file: "data.csv.s2"},
		{name: "deflate", file: "data.csv.deflate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := config.NewDialect()
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			d.Path = tu.TempPath(t, tt.file)

			w, err := Create(d, headers, WithLogger(tu.TestLogger(t)))
			require.NoError(t, err)
			for _, row := range rows {
				require.NoError(t, w.WriteRecord(row))
			}
			require.NoError(t, w.Close())

			r, err := Open(d, WithLogger(tu.TestLogger(t)))
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, headers, r.Headers())
			count, err := r.RecordCount()
			require.NoError(t, err)
			assert.Equal(t, int64(len(rows)), count)
			assert.Equal(t, rows, readAll(t, r))
		})
	}
}

func TestRoundTripArenaPool(t *testing.T) {
	p, err := arena.NewPool(64 << 10)
	require.NoError(t, err)

	d := config.NewDialect()
	d.Path = tu.TempPath(t, "pooled.csv")
	rows := roundTripRows(10)

	for i := 0; i < 3; i++ {
		w, err := Create(d, []string{"id", "text", "pad"}, WithArenaPool(p), WithLogger(tu.TestLogger(t)))
		require.NoError(t, err)
		for _, row := range rows {
			require.NoError(t, w.WriteRecord(row))
		}
		require.NoError(t, w.Close())

		r, err := Open(d, WithArenaPool(p), WithLogger(tu.TestLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, rows, readAll(t, r))
		require.NoError(t, r.Close())
	}

	_, inUse, hits, misses := p.Stats()
	assert.Equal(t, int64(0), inUse)
	assert.Equal(t, int64(9), hits+misses)
}
