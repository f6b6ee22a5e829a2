// Package decoder splits a byte stream into frames, dispatches each frame to
// the parser registered for its sync tag and collects the decoded
// coordinates in frame order. Unknown tags and malformed frames are skipped
// and reported on the Outcome; they never abort the stream.
package decoder

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/d21d3q/geoframe/internal/driver"
	"github.com/d21d3q/geoframe/internal/driver/wire"
	"github.com/d21d3q/geoframe/internal/frame"
	"github.com/d21d3q/geoframe/internal/options"
	"github.com/d21d3q/geoframe/internal/records"
)

// ErrNoValidData is returned when not a single frame decoded.
var ErrNoValidData = errors.New("no valid data decoded")

// Observer receives one callback per frame. Implementations must be safe
// for concurrent use when decoding with more than one worker.
type Observer interface {
	FrameDecoded(tag frame.SyncTag, sourceType string)
	FrameSkipped(tag frame.SyncTag, reason records.Reason)
	StreamDecoded(frames, remainder int, err error)
}

// Outcome is the result of decoding one buffer.
type Outcome struct {
	Coordinates []records.Coordinate
	Skips       []records.Skip
	Frames      int
	// Remainder counts trailing bytes shorter than one frame.
	Remainder int
}

// Decoder is stateless across calls and may be shared between goroutines.
type Decoder struct {
	registry *driver.Registry
	log      *logrus.Entry
	observer Observer
}

// Option customises a Decoder.
type Option func(*Decoder)

// WithLogger sets the entry used for skip diagnostics.
func WithLogger(log *logrus.Entry) Option {
	return func(d *Decoder) {
		if log != nil {
			d.log = log
		}
	}
}

// WithObserver attaches per-frame instrumentation.
func WithObserver(o Observer) Option {
	return func(d *Decoder) { d.observer = o }
}

// New builds a decoder over reg and seals the registry.
func New(reg *driver.Registry, opts ...Option) *Decoder {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	d := &Decoder{
		registry: reg.Seal(),
		log:      logrus.NewEntry(quiet),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry exposes the sealed registry the decoder dispatches through.
func (d *Decoder) Registry() *driver.Registry {
	return d.registry
}

type slot struct {
	coord records.Coordinate
	skip  records.Skip
	ok    bool
}

// Decode processes every complete frame in data. The worker count is taken
// from options.Workers(ctx); options.StrictRange(ctx) additionally skips
// coordinates outside the valid range as format errors. On ErrNoValidData the returned Outcome still
// carries the skip list.
func (d *Decoder) Decode(ctx context.Context, data []byte) (Outcome, error) {
	out := Outcome{
		Frames:    frame.Count(data),
		Remainder: frame.Remainder(data),
	}
	if out.Remainder > 0 {
		d.log.WithFields(logrus.Fields{
			"offset": out.Frames * frame.Size,
			"bytes":  out.Remainder,
		}).Debug("dropping truncated tail")
	}

	slots := make([]slot, out.Frames)
	strict := options.StrictRange(ctx)
	var err error
	if workers := options.Workers(ctx); workers > 1 && out.Frames > 1 {
		err = d.decodeParallel(ctx, data, slots, workers, strict)
	} else {
		err = d.decodeSequential(ctx, data, slots, strict)
	}
	if err != nil {
		d.finish(out, err)
		return Outcome{}, err
	}

	for _, s := range slots {
		if s.ok {
			out.Coordinates = append(out.Coordinates, s.coord)
		} else {
			out.Skips = append(out.Skips, s.skip)
		}
	}
	if len(out.Coordinates) == 0 {
		d.finish(out, ErrNoValidData)
		return out, ErrNoValidData
	}
	d.finish(out, nil)
	return out, nil
}

func (d *Decoder) decodeSequential(ctx context.Context, data []byte, slots []slot, strict bool) error {
	for f := range frame.Split(data) {
		if err := ctx.Err(); err != nil {
			return err
		}
		slots[f.Index] = d.dispatch(f, strict)
	}
	return nil
}

func (d *Decoder) decodeParallel(ctx context.Context, data []byte, slots []slot, workers int, strict bool) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for f := range frame.Split(data) {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[f.Index] = d.dispatch(f, strict)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (d *Decoder) dispatch(f frame.Frame, strict bool) slot {
	tag := f.Tag()
	parser, ok := d.registry.Lookup(tag)
	if !ok {
		return d.skip(f, records.ReasonUnknownSyncTag, "no parser registered for "+tag.String())
	}
	coord, err := parser.Parse(f)
	if err == nil && strict {
		err = wire.CheckRange(parser.Name(), coord.Latitude, coord.Longitude)
	}
	if err != nil {
		return d.skip(f, records.ReasonFormatError, err.Error())
	}
	coord.FrameIndex = f.Index
	if d.observer != nil {
		d.observer.FrameDecoded(tag, coord.SourceType)
	}
	return slot{coord: coord, ok: true}
}

func (d *Decoder) skip(f frame.Frame, reason records.Reason, detail string) slot {
	s := records.Skip{
		FrameIndex: f.Index,
		Offset:     f.Offset,
		Tag:        f.Tag(),
		Reason:     reason,
		Detail:     detail,
	}
	d.log.WithFields(logrus.Fields{
		"frame":  s.FrameIndex,
		"offset": s.Offset,
		"tag":    s.Tag.String(),
		"reason": string(s.Reason),
	}).Debug(detail)
	if d.observer != nil {
		d.observer.FrameSkipped(s.Tag, reason)
	}
	return slot{skip: s}
}

func (d *Decoder) finish(out Outcome, err error) {
	if d.observer != nil {
		d.observer.StreamDecoded(out.Frames, out.Remainder, err)
	}
}
