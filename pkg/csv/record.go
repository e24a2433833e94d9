package csv

// Record is one parsed row. Its field storage lives in the reader's
// temporary arena, so it is only usable until the reader's next Next,
// Rewind, Seek, SetDialect or Close. Accessors panic after that.
type Record struct {
	reader *Reader
	fields *Fields
	gen    uint64
	line   int
}

func (rec *Record) check() {
	if !rec.Valid() {
		panic("csv: record used after reader advanced")
	}
}

// Valid reports whether the record can still be read.
func (rec *Record) Valid() bool {
	return rec != nil && rec.reader != nil && rec.gen == rec.reader.gen
}

// Len returns the number of fields.
func (rec *Record) Len() int {
	rec.check()
	return rec.fields.Len()
}

// Field returns a copy of field i, or "" when i is out of range.
func (rec *Record) Field(i int) string {
	rec.check()
	if i < 0 || i >= rec.fields.Len() {
		return ""
	}
	return rec.fields.String(i)
}

// Bytes returns field i without copying, or nil when i is out of range.
func (rec *Record) Bytes(i int) []byte {
	rec.check()
	if i < 0 || i >= rec.fields.Len() {
		return nil
	}
	return rec.fields.Bytes(i)
}

// Fields copies all fields out of the arena.
func (rec *Record) Fields() []string {
	rec.check()
	return rec.fields.Strings()
}

// Get returns the field under the named header column. The first column
// with that name wins. ok is false when the reader has no such header or the
// row is too short to reach it.
func (rec *Record) Get(name string) (value string, ok bool) {
	rec.check()
	i, found := rec.reader.index[name]
	if !found || i >= rec.fields.Len() {
		return "", false
	}
	return rec.fields.String(i), true
}

// Map returns the record keyed by header name. Columns missing from a short
// row map to "". It returns nil when the reader has no header.
func (rec *Record) Map() map[string]string {
	rec.check()
	headers := rec.reader.headers
	if len(headers) == 0 {
		return nil
	}
	m := make(map[string]string, len(headers))
	for i := len(headers) - 1; i >= 0; i-- {
		m[headers[i]] = ""
		if i < rec.fields.Len() {
			m[headers[i]] = rec.fields.String(i)
		}
	}
	return m
}

// Line returns the 1-based physical line the record started on.
func (rec *Record) Line() int {
	rec.check()
	return rec.line
}

func (rec *Record) rawFields() [][]byte {
	out := make([][]byte, rec.fields.Len())
	for i := range out {
		out[i] = rec.fields.Bytes(i)
	}
	return out
}
