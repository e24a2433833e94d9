package csv

import (
	"github.com/ajitpratap0/dialectcsv/pkg/arena"
	"github.com/ajitpratap0/dialectcsv/pkg/config"
)

type parseState int

const (
	fieldStart parseState = iota
	unquotedField
	quotedField
	fieldEnd
)

// Parser splits single logical lines into fields according to a dialect.
// It keeps a scratch buffer between calls and is not safe for concurrent
// use.
type Parser struct {
	dialect config.Dialect
	scratch []byte
}

// NewParser validates d and returns a parser for it.
func NewParser(d config.Dialect) (*Parser, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Parser{
		dialect: d,
		scratch: make([]byte, 0, 256),
	}, nil
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() config.Dialect {
	return p.dialect
}

// Parse splits line into a new Fields backed by a.
func (p *Parser) Parse(a *arena.Arena, line []byte, lineNo int) (*Fields, error) {
	f := NewFields(a)
	if err := p.ParseInto(f, line, lineNo); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseInto replaces the contents of dst with the fields of line. line must
// not contain the record terminator. On failure dst is empty and no arena
// space is consumed.
//
// Unquoted fields lose trailing spaces and tabs; leading whitespace is kept
// unless the dialect sets TrimFields. Quoted fields are never trimmed, and a
// doubled enclosure inside them stands for one literal enclosure.
func (p *Parser) ParseInto(dst *Fields, line []byte, lineNo int) error {
	if dst == nil || dst.arena == nil {
		return &ParseError{Code: ParserNullPointer, Line: lineNo, Err: arena.ErrNullPointer}
	}
	dst.Reset()
	if len(line) == 0 {
		return nil
	}

	region := dst.arena.BeginRegion()
	if err := p.parse(dst, line, lineNo); err != nil {
		dst.Reset()
		_ = region.End()
		return err
	}
	return region.Commit()
}

func (p *Parser) parse(dst *Fields, line []byte, lineNo int) error {
	var (
		delim    = byte(p.dialect.Delimiter)
		encl     = byte(p.dialect.Enclosure)
		trim     = p.dialect.TrimFields
		strict   = p.dialect.StrictMode
		preserve = p.dialect.PreserveQuotes
		state    = fieldStart
		n        = len(line)
	)
	buf := p.scratch[:0]

	emit := func(pos int) error {
		field := buf
		if state == unquotedField {
			field = trimRight(field)
		}
		if err := dst.Append(field); err != nil {
			return &ParseError{Code: ParserMemoryAllocation, Line: lineNo, Column: pos, Err: err}
		}
		buf = buf[:0]
		return nil
	}

	for pos := 0; pos < n; pos++ {
		c := line[pos]
		switch state {
		case fieldStart:
			switch {
			case c == delim:
				if err := emit(pos); err != nil {
					return err
				}
			case trim && (c == ' ' || c == '\t'):
			case c == encl:
				state = quotedField
				if preserve {
					buf = append(buf, c)
				}
			default:
				state = unquotedField
				buf = append(buf, c)
			}

		case unquotedField:
			switch {
			case c == delim:
				if err := emit(pos); err != nil {
					return err
				}
				state = fieldStart
			case c == encl && strict:
				return &ParseError{Code: ParserMalformedCSV, Line: lineNo, Column: pos, Err: ErrBareQuote}
			default:
				buf = append(buf, c)
			}

		case quotedField:
			if c != encl {
				buf = append(buf, c)
				continue
			}
			if pos+1 < n && line[pos+1] == encl {
				buf = append(buf, c)
				if preserve {
					buf = append(buf, c)
				}
				pos++
				continue
			}
			state = fieldEnd
			if preserve {
				buf = append(buf, c)
			}

		case fieldEnd:
			switch c {
			case delim:
				if err := emit(pos); err != nil {
					return err
				}
				state = fieldStart
			case ' ', '\t', '\r', '\n':
			default:
				return &ParseError{Code: ParserMalformedCSV, Line: lineNo, Column: pos, Err: ErrExpectedDelimiter}
			}
		}
	}

	p.scratch = buf[:0]

	if state == quotedField {
		return &ParseError{Code: ParserMalformedCSV, Line: lineNo, Column: n, Err: ErrUnclosedQuote}
	}
	// Every remaining state owes one last field: a pending unquoted value,
	// a closed quoted value, or the empty field after a trailing delimiter.
	return emit(n)
}

func trimRight(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
