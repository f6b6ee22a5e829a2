package geoframe

import (
	"context"

	internalopts "github.com/d21d3q/geoframe/internal/options"
)

// DecodeOptions configures decoding.
type DecodeOptions struct {
	// Workers bounds how many frames are parsed concurrently. Zero or one
	// decodes sequentially.
	Workers int
	// StrictRange skips frames whose position falls outside [-90,90]
	// latitude or [-180,180] longitude. Off by default: values are returned
	// as decoded.
	StrictRange bool
}

func (opts DecodeOptions) apply(ctx context.Context) context.Context {
	ctx = internalopts.WithWorkers(ctx, opts.Workers)
	return internalopts.WithStrictRange(ctx, opts.StrictRange)
}
