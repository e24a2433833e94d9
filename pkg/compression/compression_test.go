package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("id,name,city\r\n1,\"Smith, J\",Boston\r\n", 500))

	for _, alg := range Algorithms {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(alg), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, alg, level)
				require.NoError(t, err)

				_, err = w.Write(payload)
				require.NoError(t, err)
				require.NoError(t, w.Flush())
				require.NoError(t, w.Close())

				if alg != None {
					assert.Less(t, buf.Len(), len(payload), "repetitive input should shrink")
				}

				r, err := NewReader(&buf, alg)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, payload, got)
			})
		}
	}
}

func TestFromPath(t *testing.T) {
	tests := map[string]Algorithm{
		"data.csv":         None,
		"data.csv.gz":      Gzip,
		"DATA.CSV.GZ":      Gzip,
		"data.csv.zst":     Zstd,
		"data.csv.zstd":    Zstd,
		"data.csv.lz4":     LZ4,
		"data.csv.sz":      Snappy,
		"data.csv.snappy":  Snappy,
		"data.csv.s2":      S2,
		"data.csv.deflate": Deflate,
		"noext":            None,
	}
	for path, want := range tests {
		assert.Equal(t, want, FromPath(path), path)
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, a)

	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, a)

	_, err = ParseAlgorithm("brotli")
	assert.Error(t, err)

	_, err = NewWriter(io.Discard, Algorithm("brotli"), Default)
	assert.Error(t, err)
	_, err = NewReader(strings.NewReader(""), Algorithm("brotli"))
	assert.Error(t, err)
}

func TestInvalidStream(t *testing.T) {
	_, err := NewReader(strings.NewReader("definitely not gzip"), Gzip)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", Default, false},
		{"fastest", Fastest, false},
		{" Best ", Best, false},
		{"better", Better, false},
		{"max", Default, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
