// Package geoframe decodes telemetry streams made of fixed 16-byte frames
// into geodetic coordinates. Each frame starts with a big-endian sync tag
// that selects the signal parser; frames with unknown tags or unreadable
// fields are skipped and reported alongside the decoded coordinates.
package geoframe

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/d21d3q/geoframe/internal/decoder"
	"github.com/d21d3q/geoframe/internal/driver"
	"github.com/d21d3q/geoframe/internal/driver/signala"
	"github.com/d21d3q/geoframe/internal/driver/signalb"
	"github.com/d21d3q/geoframe/internal/frame"
	"github.com/d21d3q/geoframe/internal/options"
	"github.com/d21d3q/geoframe/internal/records"
)

type (
	Coordinate = records.Coordinate
	Skip       = records.Skip
	Frame      = frame.Frame
	SyncTag    = frame.SyncTag
	Parser     = driver.Parser
	Registry   = driver.Registry
	Observer   = decoder.Observer
)

var (
	// ErrNoValidData means no frame in the input produced a coordinate.
	ErrNoValidData = decoder.ErrNoValidData
	// ErrInvalidEncoding means hex input contained a non-hex character or an
	// odd number of digits.
	ErrInvalidEncoding = options.ErrInvalidEncoding
)

// Result captures the outcome of Decode.
type Result struct {
	ByteCount    int          `json:"byte_count"`
	Frames       int          `json:"frames"`
	DroppedBytes int          `json:"dropped_bytes"`
	Coordinates  []Coordinate `json:"coordinates"`
	Skips        []Skip       `json:"skips,omitempty"`
}

// Types returns the distinct source types present, in first-seen order.
func (r Result) Types() []string {
	var types []string
	for _, c := range r.Coordinates {
		if !slices.Contains(types, c.SourceType) {
			types = append(types, c.SourceType)
		}
	}
	return types
}

// String renders a human-readable representation of the result.
func (r Result) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("frames:%d coordinates:%d skips:%d (marshal error: %v)", r.Frames, len(r.Coordinates), len(r.Skips), err)
	}
	return string(data)
}

// NewRegistry returns an empty registry for callers building a custom
// format set.
func NewRegistry() *Registry {
	return driver.NewRegistry()
}

// DefaultRegistry returns an unsealed registry holding every built-in
// signal format.
func DefaultRegistry() *Registry {
	return driver.NewRegistry().
		Register(signala.Tag, signala.Parser{}).
		Register(signalb.Tag, signalb.Parser{})
}

// Decoder decodes streams against one registry.
type Decoder struct {
	inner *decoder.Decoder
}

// NewDecoder seals reg and returns a decoder over it. log and obs may be nil.
func NewDecoder(reg *Registry, log *logrus.Entry, obs Observer) *Decoder {
	opts := []decoder.Option{decoder.WithLogger(log)}
	if obs != nil {
		opts = append(opts, decoder.WithObserver(obs))
	}
	return &Decoder{inner: decoder.New(reg, opts...)}
}

// Decode processes raw frame bytes.
func (d *Decoder) Decode(ctx context.Context, data []byte) (Result, error) {
	return d.DecodeWithOptions(ctx, data, DecodeOptions{})
}

// DecodeWithOptions processes raw frame bytes with custom options.
func (d *Decoder) DecodeWithOptions(ctx context.Context, data []byte, opts DecodeOptions) (Result, error) {
	out, err := d.inner.Decode(opts.apply(ctx), data)
	result := Result{
		ByteCount:    len(data),
		Frames:       out.Frames,
		DroppedBytes: out.Remainder,
		Coordinates:  out.Coordinates,
		Skips:        out.Skips,
	}
	return result, err
}

// DecodeHex strips whitespace from text, converts it to bytes and decodes
// them exactly as Decode would.
func (d *Decoder) DecodeHex(ctx context.Context, text string) (Result, error) {
	return d.DecodeHexWithOptions(ctx, text, DecodeOptions{})
}

// DecodeHexWithOptions is DecodeHex with custom options.
func (d *Decoder) DecodeHexWithOptions(ctx context.Context, text string, opts DecodeOptions) (Result, error) {
	data, err := options.ParseHex(text)
	if err != nil {
		return Result{}, err
	}
	return d.DecodeWithOptions(ctx, data, opts)
}

var defaultDecoder = sync.OnceValue(func() *Decoder {
	return NewDecoder(DefaultRegistry(), nil, nil)
})

// Decode processes raw frame bytes with the built-in formats.
func Decode(ctx context.Context, data []byte) (Result, error) {
	return defaultDecoder().Decode(ctx, data)
}

// DecodeWithOptions processes raw frame bytes with the built-in formats and
// custom options.
func DecodeWithOptions(ctx context.Context, data []byte, opts DecodeOptions) (Result, error) {
	return defaultDecoder().DecodeWithOptions(ctx, data, opts)
}

// DecodeHex decodes a hex string with the built-in formats.
func DecodeHex(ctx context.Context, text string) (Result, error) {
	return defaultDecoder().DecodeHex(ctx, text)
}

// DecodeHexWithOptions decodes a hex string with the built-in formats and
// custom options.
func DecodeHexWithOptions(ctx context.Context, text string, opts DecodeOptions) (Result, error) {
	return defaultDecoder().DecodeHexWithOptions(ctx, text, opts)
}
