package options

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidEncoding is returned when textual input cannot be turned into bytes.
var ErrInvalidEncoding = errors.New("invalid hex encoding")

type (
	workersKey     struct{}
	strictRangeKey struct{}
)

// WithWorkers stores the decode parallelism inside the context. Values
// below 1 leave the context untouched.
func WithWorkers(ctx context.Context, n int) context.Context {
	if n < 1 {
		return ctx
	}
	return context.WithValue(ctx, workersKey{}, n)
}

// Workers retrieves the decode parallelism from context, defaulting to 1.
func Workers(ctx context.Context) int {
	if v := ctx.Value(workersKey{}); v != nil {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	return 1
}

// WithStrictRange asks the decoder to skip coordinates outside the valid
// latitude/longitude range.
func WithStrictRange(ctx context.Context, strict bool) context.Context {
	if !strict {
		return ctx
	}
	return context.WithValue(ctx, strictRangeKey{}, true)
}

// StrictRange reports whether range checking was requested.
func StrictRange(ctx context.Context) bool {
	v, _ := ctx.Value(strictRangeKey{}).(bool)
	return v
}

// ParseHex strips all whitespace from input and decodes the remaining hex
// digits. Odd digit counts and non-hex characters fail with ErrInvalidEncoding.
func ParseHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits (%d)", ErrInvalidEncoding, len(clean))
	}
	dst := make([]byte, len(clean)/2)
	if _, err := hex.Decode(dst, []byte(clean)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return dst, nil
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
