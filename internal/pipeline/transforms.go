package pipeline

import (
	"context"

	"github.com/ajitpratap0/dialectcsv/pkg/errors"
)

// Transform modifies one row in flight. Returning a nil row drops it.
type Transform func(ctx context.Context, fields []string) ([]string, error)

// SelectColumns projects rows onto the named columns, in the order given.
// headers is the input header row. Rows too short to reach a column get an
// empty value for it.
func SelectColumns(headers []string, names ...string) (Transform, error) {
	if len(names) == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "no columns selected")
	}

	index := make([]int, len(names))
	for i, name := range names {
		index[i] = -1
		for j, h := range headers {
			if h == name {
				index[i] = j
				break
			}
		}
		if index[i] < 0 {
			return nil, errors.Newf(errors.ErrorTypeValidation, "unknown column %q", name).
				WithDetail("headers", headers)
		}
	}

	return func(_ context.Context, fields []string) ([]string, error) {
		out := make([]string, len(index))
		for i, j := range index {
			if j < len(fields) {
				out[i] = fields[j]
			}
		}
		return out, nil
	}, nil
}

// Filter keeps rows for which keep returns true.
//
// Example:
//
//	// Drop rows without an email
//	p.AddTransform(Filter(func(fields []string) bool {
//	    return len(fields) > 2 && fields[2] != ""
//	}))
func Filter(keep func(fields []string) bool) Transform {
	return func(_ context.Context, fields []string) ([]string, error) {
		if keep(fields) {
			return fields, nil
		}
		return nil, nil
	}
}

// ConvertField rewrites the value at column i. Rows without column i pass
// through unchanged.
func ConvertField(i int, convert func(string) (string, error)) Transform {
	return func(_ context.Context, fields []string) ([]string, error) {
		if i < 0 || i >= len(fields) {
			return fields, nil
		}
		v, err := convert(fields[i])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to convert field").
				WithDetail("column", i)
		}
		fields[i] = v
		return fields, nil
	}
}
