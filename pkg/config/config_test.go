package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

func TestNewDialectDefaults(t *testing.T) {
	d := NewDialect()
	assert.Equal(t, Char(','), d.Delimiter)
	assert.Equal(t, Char('"'), d.Enclosure)
	assert.Equal(t, Char('"'), d.Escape)
	assert.True(t, d.HasHeader)
	assert.Equal(t, UTF8, d.Encoding)
	assert.False(t, d.WriteBOM)
	assert.False(t, d.StrictMode)
	assert.False(t, d.SkipEmptyLines)
	assert.False(t, d.TrimFields)
	assert.False(t, d.PreserveQuotes)
	assert.False(t, d.AutoFlush)
	assert.NoError(t, d.Validate())

	w := NewWriterDialect()
	assert.True(t, w.AutoFlush)
}

func TestValidateChars(t *testing.T) {
	tests := []struct {
		name    string
		d, q, e byte
		wantErr bool
	}{
		{"distinct", ',', '"', '\\', false},
		{"tab delimited", '\t', '\'', '\\', false},
		{"nul delimiter", 0, '"', '\\', true},
		{"nul enclosure", ',', 0, '\\', true},
		{"nul escape", ',', '"', 0, true},
		{"delimiter equals enclosure", ',', ',', '\\', true},
		{"delimiter equals escape", ',', '"', ',', true},
		{"enclosure equals escape", ',', '"', '"', true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChars(tt.d, tt.q, tt.e)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDialectValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Dialect)
		wantErr bool
	}{
		{"defaults", func(*Dialect) {}, false},
		{"backslash escape", func(d *Dialect) { d.Escape = '\\' }, false},
		{"escape equals delimiter", func(d *Dialect) { d.Escape = ',' }, true},
		{"delimiter equals enclosure", func(d *Dialect) { d.Delimiter = '"' }, true},
		{"nul delimiter", func(d *Dialect) { d.Delimiter = 0 }, true},
		{"negative offset", func(d *Dialect) { d.Offset = -1 }, true},
		{"negative limit", func(d *Dialect) { d.Limit = -3 }, true},
		{"long path", func(d *Dialect) { d.Path = strings.Repeat("a", MaxPathLength) }, true},
		{"max path", func(d *Dialect) { d.Path = strings.Repeat("a", MaxPathLength-1) }, false},
		{"bad encoding", func(d *Dialect) { d.Encoding = Encoding(42) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDialect()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBOM(t *testing.T) {
	tests := []struct {
		enc  Encoding
		want []byte
	}{
		{UTF8, []byte{0xEF, 0xBB, 0xBF}},
		{UTF16LE, []byte{0xFF, 0xFE}},
		{UTF16BE, []byte{0xFE, 0xFF}},
		{UTF32LE, []byte{0xFF, 0xFE, 0x00, 0x00}},
		{UTF32BE, []byte{0x00, 0x00, 0xFE, 0xFF}},
		{ASCII, nil},
		{Latin1, nil},
		{Encoding(-1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, BOM(tt.enc))
		})
	}

	b := BOM(UTF8)
	b[0] = 0
	assert.Equal(t, byte(0xEF), BOM(UTF8)[0], "BOM must return a copy")
}

func TestParseEncoding(t *testing.T) {
	tests := map[string]Encoding{
		"utf-8":    UTF8,
		"UTF8":     UTF8,
		"":         UTF8,
		"utf-16le": UTF16LE,
		"utf16be":  UTF16BE,
		"utf-32le": UTF32LE,
		"utf-32be": UTF32BE,
		"ascii":    ASCII,
		"latin-1":  Latin1,
		"latin1":   Latin1,
	}
	for in, want := range tests {
		got, err := ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEncoding("ebcdic")
	assert.Error(t, err)
}

func TestParseChar(t *testing.T) {
	c, err := ParseChar(";")
	require.NoError(t, err)
	assert.Equal(t, Char(';'), c)

	c, err = ParseChar(`\t`)
	require.NoError(t, err)
	assert.Equal(t, Char('\t'), c)

	c, err = ParseChar("pipe")
	require.NoError(t, err)
	assert.Equal(t, Char('|'), c)

	_, err = ParseChar("ab")
	assert.Error(t, err)
	_, err = ParseChar("")
	assert.Error(t, err)
}

func TestLoadDialect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipes.yaml")
	t.Setenv("DIALECT_LIMIT", "25")

	content := `
delimiter: "|"
enclosure: "'"
escape: "\\"
limit: ${DIALECT_LIMIT}
has_header: false
encoding: utf-16le
strict_mode: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := LoadDialect(path)
	require.NoError(t, err)
	assert.Equal(t, Char('|'), d.Delimiter)
	assert.Equal(t, Char('\''), d.Enclosure)
	assert.Equal(t, Char('\\'), d.Escape)
	assert.Equal(t, 25, d.Limit)
	assert.False(t, d.HasHeader)
	assert.Equal(t, UTF16LE, d.Encoding)
	assert.True(t, d.StrictMode)
	assert.Equal(t, DialectVersion, d.Version)
}

func TestLoadDialectInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDialect(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("delimiter: \"\\\"\"\n"), 0o600))
	_, err = LoadDialect(bad)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	future := filepath.Join(dir, "future.yaml")
	require.NoError(t, os.WriteFile(future, []byte("version: 99\n"), 0o600))
	_, err = LoadDialect(future)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dialect.yaml")

	d := NewDialect()
	d.Delimiter = '\t'
	d.Encoding = Latin1
	d.SkipEmptyLines = true
	require.NoError(t, Save(path, d))

	loaded, err := LoadDialect(path)
	require.NoError(t, err)
	assert.Equal(t, d, loaded)
}
