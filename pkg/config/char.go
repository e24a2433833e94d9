package config

import (
	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// Char is a single dialect byte. It marshals as a one-character string so
// profiles read naturally in YAML and JSON.
type Char byte

// ParseChar accepts a single byte, or one of the spellings `\t`, "tab",
// "space", "pipe" and "semicolon".
func ParseChar(s string) (Char, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	case "space":
		return ' ', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	}
	if len(s) != 1 {
		return 0, errors.Newf(errors.ErrorTypeConfig, "dialect character must be a single byte, got %q", s)
	}
	return Char(s[0]), nil
}

func (c Char) String() string {
	return string([]byte{byte(c)})
}

// MarshalText implements encoding.TextMarshaler.
func (c Char) MarshalText() ([]byte, error) {
	return []byte{byte(c)}, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Char) UnmarshalText(text []byte) error {
	parsed, err := ParseChar(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
