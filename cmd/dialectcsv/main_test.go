package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dialectcsv/pkg/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const sample = "id,name,city\n1,Alice,Boston\n2,Bob,Denver\n3,Carol,Boston\n"

func TestCount(t *testing.T) {
	path := testutil.WriteFile(t, "sample.csv", sample)

	out, err := run(t, "count", path)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = run(t, "count", "--no-header", path)
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
}

func TestHeaders(t *testing.T) {
	path := testutil.WriteFile(t, "sample.csv", sample)
	out, err := run(t, "headers", path)
	require.NoError(t, err)
	assert.Equal(t, "0\tid\n1\tname\n2\tcity\n", out)
}

func TestCatCSVFromEnvDialect(t *testing.T) {
	path := testutil.WriteFile(t, "semi.csv", "a;b\n1;x,y\n")
	t.Setenv("DIALECTCSV_DELIMITER", ";")

	out, err := run(t, "cat", path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n1,\"x,y\"\r\n", out)
}

func TestCatJSON(t *testing.T) {
	path := testutil.WriteFile(t, "sample.csv", sample)
	out, err := run(t, "cat", "--format", "json", "--limit", "2", path)
	require.NoError(t, err)

	var rows []map[string]string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var row map[string]string
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		rows = append(rows, row)
	}
	assert.Equal(t, []map[string]string{
		{"id": "1", "name": "Alice", "city": "Boston"},
		{"id": "2", "name": "Bob", "city": "Denver"},
	}, rows)
}

func TestCatJSONWithoutHeader(t *testing.T) {
	path := testutil.WriteFile(t, "rows.csv", "1,2\n")
	out, err := run(t, "cat", "--format", "json", "--no-header", path)
	require.NoError(t, err)
	assert.JSONEq(t, `["1","2"]`, strings.TrimSpace(out))
}

func TestCatUnknownFormat(t *testing.T) {
	path := testutil.WriteFile(t, "sample.csv", sample)
	_, err := run(t, "cat", "--format", "xml", path)
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	in := testutil.WriteFile(t, "in.csv", sample)
	out := testutil.TempPath(t, "out.tsv.gz")

	msg, err := run(t, "convert", "--out-delimiter", "tab", "--select", "city,name", in, out)
	require.NoError(t, err)
	assert.Contains(t, msg, "read 3, written 3, skipped 0")

	got, err := run(t, "cat", "--delimiter", "tab", out)
	require.NoError(t, err)
	assert.Equal(t, "city,name\r\nBoston,Alice\r\nDenver,Bob\r\nBoston,Carol\r\n", got)
}

func TestConvertBOM(t *testing.T) {
	in := testutil.WriteFile(t, "in.csv", "a\n1\n")
	out := testutil.TempPath(t, "out.csv")

	_, err := run(t, "convert", "--bom", in, out)
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFa\r\n1\r\n", testutil.ReadAll(t, out))
}

func TestConvertCompressionOverride(t *testing.T) {
	in := testutil.WriteFile(t, "in.csv", sample)
	out := testutil.TempPath(t, "out.dat")

	_, err := run(t, "convert", "--compression", "zstd", "--level", "best", in, out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(testutil.ReadAll(t, out), "\x28\xB5\x2F\xFD"), "zstd magic")

	_, err = run(t, "convert", "--compression", "brotli", in, out)
	assert.Error(t, err)
	_, err = run(t, "convert", "--level", "max", in, out)
	assert.Error(t, err)
}

func TestConvertSkipErrors(t *testing.T) {
	in := testutil.WriteFile(t, "bad.csv", "a,b\n1,2\n\"x\"y,3\n4,5\n")
	out := testutil.TempPath(t, "out.csv")

	_, err := run(t, "convert", in, out)
	assert.Error(t, err)

	msg, err := run(t, "convert", "--skip-errors", in, out)
	require.NoError(t, err)
	assert.Contains(t, msg, "skipped 1")
	assert.Equal(t, "a,b\r\n1,2\r\n4,5\r\n", testutil.ReadAll(t, out))
}

func TestConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, "pipes.csv", "a|b\n1|2\n")
	cfg := testutil.WriteFile(t, "cli.yaml", "delimiter: pipe\n")

	out, err := run(t, "--config", cfg, "headers", path)
	require.NoError(t, err)
	assert.Equal(t, "0\ta\n1\tb\n", out)
}

func TestDialectProfile(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", "skip me\nx;y\n1;2\n")
	profile := testutil.WriteFile(t, "profile.yaml", "delimiter: \";\"\noffset: 1\n")

	out, err := run(t, "--dialect", profile, "cat", path)
	require.NoError(t, err)
	assert.Equal(t, "x,y\r\n1,2\r\n", out)

	out, err = run(t, "--dialect", profile, "--offset", "0", "count", path)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestInvalidDialectFlag(t *testing.T) {
	path := testutil.WriteFile(t, "sample.csv", sample)
	_, err := run(t, "count", "--delimiter", "ab", path)
	assert.Error(t, err)

	_, err = run(t, "count", "--enclosure", ",", path)
	assert.Error(t, err)
}

func TestTraceAndMetrics(t *testing.T) {
	path := testutil.WriteFile(t, "sample.csv", sample)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"count", "--trace", "--metrics", path})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "3\n", out.String())
	assert.Contains(t, errOut.String(), `"Name":"count"`)
	assert.Contains(t, errOut.String(), "dialectcsv_bytes_read_total")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dialectcsv v"+version)
}

func TestCatJSONArray(t *testing.T) {
	path := testutil.WriteFile(t, "sample.csv", sample)
	out, err := run(t, "cat", "--format", "json-array", "--limit", "1", path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","name":"Alice","city":"Boston"}]`, out)
}
