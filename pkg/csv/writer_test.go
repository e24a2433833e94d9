package csv

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dialectcsv/pkg/config"
	tu "github.com/ajitpratap0/dialectcsv/pkg/testutil"
)

func newTestWriter(t *testing.T, buf *bytes.Buffer, headers []string, mutate func(*config.Dialect), opts ...Option) *Writer {
	t.Helper()
	d := config.NewDialect()
	if mutate != nil {
		mutate(&d)
	}
	opts = append([]Option{WithLogger(tu.TestLogger(t))}, opts...)
	w, err := NewWriter(buf, d, headers, opts...)
	require.NoError(t, err)
	return w
}

func TestWriterHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"name", "age"}, nil)
	assert.Equal(t, 1, w.Line())

	require.NoError(t, w.WriteRecord([]string{"Alice", "28"}))
	require.NoError(t, w.WriteRecord([]string{"Bob", "35"}))
	assert.Equal(t, 3, w.Line())
	assert.Empty(t, buf.String())

	require.NoError(t, w.Flush())
	assert.Equal(t, "name,age\r\nAlice,28\r\nBob,35\r\n", buf.String())
	assert.Equal(t, []string{"name", "age"}, w.Headers())
	require.NoError(t, w.Close())
}

func TestWriterAutoFlush(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"a"}, func(d *config.Dialect) { d.AutoFlush = true })
	assert.Equal(t, "a\r\n", buf.String())

	require.NoError(t, w.WriteRecord([]string{"1"}))
	assert.Equal(t, "a\r\n1\r\n", buf.String())
	require.NoError(t, w.Close())
}

func TestWriterBOM(t *testing.T) {
	tests := []struct {
		encoding config.Encoding
		bom      string
	}{
		{config.UTF8, "\xEF\xBB\xBF"},
		{config.UTF16LE, "\xFF\xFE"},
		{config.UTF32BE, "\x00\x00\xFE\xFF"},
		{config.ASCII, ""},
		{config.Latin1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.encoding.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := newTestWriter(t, &buf, []string{"h"}, func(d *config.Dialect) {
				d.WriteBOM = true
				d.Encoding = tt.encoding
			})
			require.NoError(t, w.WriteRecord([]string{"v"}))
			require.NoError(t, w.WriteRecord([]string{"w"}))
			require.NoError(t, w.Close())

			assert.Equal(t, tt.bom+"h\r\nv\r\nw\r\n", buf.String())
		})
	}
}

func TestWriterBOMWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, nil, func(d *config.Dialect) { d.WriteBOM = true })
	require.NoError(t, w.Close())
	assert.Equal(t, "\xEF\xBB\xBF", buf.String())
}

func TestWriterPadAndTruncate(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"a", "b", "c"}, nil)
	require.NoError(t, w.WriteRecord([]string{"x"}))
	require.NoError(t, w.WriteRecord([]string{"1", "2", "3", "4"}))
	require.NoError(t, w.WriteRecord(nil))
	require.NoError(t, w.Close())

	assert.Equal(t, "a,b,c\r\nx,,\r\n1,2,3\r\n,,\r\n", buf.String())
}

func TestWriterNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, nil, nil)
	require.NoError(t, w.WriteRecord([]string{"1", "2", "3"}))
	require.NoError(t, w.WriteRecord([]string{"4"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "1,2,3\r\n4\r\n", buf.String())
	assert.Nil(t, w.Headers())
}

func TestWriterQuoting(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, nil, nil)
	require.NoError(t, w.WriteRecord([]string{"a,b", `say "hi"`, "multi\nline", "cr\rhere", "plain", "with space"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "\"a,b\",\"say \"\"hi\"\"\",\"multi\nline\",\"cr\rhere\",plain,with space\r\n", buf.String())
}

func TestWriterStrictQuotesSpaces(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, nil, func(d *config.Dialect) { d.StrictMode = true })
	require.NoError(t, w.WriteRecord([]string{"a b", "ab"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "\"a b\",ab\r\n", buf.String())
}

func TestNeedsQuoting(t *testing.T) {
	tests := []struct {
		field  string
		strict bool
		want   bool
	}{
		{"plain", false, false},
		{"", false, false},
		{"a,b", false, true},
		{`a"b`, false, true},
		{"a\nb", false, true},
		{"a\rb", false, true},
		{"a b", false, false},
		{"a b", true, true},
		{"a;b", false, false},
		{"trail ", false, true},
		{"tab\t", false, true},
		{" lead", false, false},
		{" ", false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NeedsQuoting(tt.field, ',', '"', tt.strict), "%q strict=%v", tt.field, tt.strict)
	}
}

func TestWriterQuotesBlankEdges(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, nil, nil)
	require.NoError(t, w.WriteRecord([]string{"", " lead", "trail "}))
	require.NoError(t, w.Close())
	assert.Equal(t, ", lead,\"trail \"\r\n", buf.String())

	buf.Reset()
	w = newTestWriter(t, &buf, nil, func(d *config.Dialect) { d.TrimFields = true })
	require.NoError(t, w.WriteRecord([]string{"", " lead", "\tx", "mid dle"}))
	require.NoError(t, w.Close())
	assert.Equal(t, ",\" lead\",\"\tx\",mid dle\r\n", buf.String())
}

func TestWriterCustomDialect(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"k", "v"}, func(d *config.Dialect) {
		d.Delimiter = ';'
		d.Enclosure = '\''
		d.Escape = '\''
	})
	require.NoError(t, w.WriteRecord([]string{"it's", "a;b"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "k;v\r\n'it''s';'a;b'\r\n", buf.String())
}

func TestWriteRecordMap(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"name", "age", "city"}, nil)

	require.NoError(t, w.WriteRecordMap(
		[]string{"city", "name", "age"},
		[]string{"Boston", "Alice", "28"},
	))
	require.NoError(t, w.WriteRecordMap(
		[]string{"name", "unknown", "name"},
		[]string{"Bob", "x", "Robert"},
	))

	err := w.WriteRecordMap([]string{"name"}, nil)
	assert.ErrorIs(t, err, WriterInvalidFieldCount)

	require.NoError(t, w.Close())
	assert.Equal(t, "name,age,city\r\nAlice,28,Boston\r\nRobert,,\r\n", buf.String())
}

func TestWriteRecordMapWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, nil, nil)
	assert.ErrorIs(t, w.WriteRecordMap([]string{"a"}, []string{"1"}), WriterInvalidFieldCount)
	assert.ErrorIs(t, w.WriteMap(map[string]string{"a": "1"}), WriterInvalidFieldCount)
}

func TestWriteRecordMapStrict(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"name", "age"}, func(d *config.Dialect) { d.StrictMode = true })

	err := w.WriteRecordMap([]string{"name", "email"}, []string{"Alice", "a@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, WriterFieldNotFound)
	assert.Contains(t, err.Error(), "email")

	err = w.WriteMap(map[string]string{"phone": "1"})
	assert.ErrorIs(t, err, WriterFieldNotFound)

	require.NoError(t, w.WriteMap(map[string]string{"age": "30", "name": "Carol"}))
	require.NoError(t, w.Close())
	assert.Equal(t, "name,age\r\nCarol,30\r\n", buf.String())
}

func TestWriteMap(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"a", "b"}, nil)
	require.NoError(t, w.WriteMap(map[string]string{"b": "2", "z": "ignored"}))
	require.NoError(t, w.Close())
	assert.Equal(t, "a,b\r\n,2\r\n", buf.String())
}

func TestWriterBufferOverflowIsSticky(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, nil, nil, WithArenaSize(512))

	require.NoError(t, w.WriteRecord([]string{"ok"}))

	err := w.WriteRecord([]string{strings.Repeat("x", 1000)})
	require.Error(t, err)
	assert.ErrorIs(t, err, WriterBufferOverflow)

	err = w.WriteRecord([]string{"small"})
	assert.ErrorIs(t, err, WriterBufferOverflow)
	assert.ErrorIs(t, w.Error(), WriterBufferOverflow)

	require.NoError(t, w.Close())
	assert.Equal(t, "ok\r\n", buf.String())
}

type failingWriter struct {
	err error
}

func (f failingWriter) Write([]byte) (int, error) {
	return 0, f.err
}

func TestWriterFileWriteError(t *testing.T) {
	cause := errors.New("disk full")
	d := config.NewWriterDialect()

	_, err := NewWriter(failingWriter{err: cause}, d, []string{"a"}, WithLogger(tu.TestLogger(t)))
	require.Error(t, err)
	assert.ErrorIs(t, err, WriterFileWrite)
	assert.ErrorIs(t, err, cause)

	w, err := NewWriter(failingWriter{err: cause}, d, nil, WithLogger(tu.TestLogger(t)))
	require.NoError(t, err)
	err = w.WriteRecord([]string{"1"})
	assert.ErrorIs(t, err, WriterFileWrite)
	assert.ErrorIs(t, w.WriteRecord([]string{"2"}), cause)
}

func TestNewWriterErrors(t *testing.T) {
	_, err := NewWriter(nil, config.NewDialect(), nil)
	assert.ErrorIs(t, err, WriterNullPointer)

	d := config.NewDialect()
	d.Delimiter = 0
	var buf bytes.Buffer
	_, err = NewWriter(&buf, d, nil)
	assert.Error(t, err)

	d = config.NewDialect()
	_, err = Create(d, nil)
	assert.ErrorIs(t, err, WriterFileOpen)
}

func TestWriterClose(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWriter(t, &buf, []string{"a"}, nil)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	err := w.WriteRecord([]string{"1"})
	assert.ErrorIs(t, err, WriterFileWrite)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, w.Flush())
	assert.Equal(t, "a\r\n", buf.String())
}

func TestWriteFrom(t *testing.T) {
	r := newTestReader(t, "id,note\n1,\"a, b\"\n2,\"say \"\"x\"\"\"\n", nil)

	var buf bytes.Buffer
	w := newTestWriter(t, &buf, r.Headers(), nil)
	for rec, err := range r.Records() {
		require.NoError(t, err)
		require.NoError(t, w.WriteFrom(rec))
	}
	assert.ErrorIs(t, w.WriteFrom(nil), WriterNullPointer)
	require.NoError(t, w.Close())

	assert.Equal(t, "id,note\r\n1,\"a, b\"\r\n2,\"say \"\"x\"\"\"\r\n", buf.String())
}
