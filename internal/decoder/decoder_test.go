package decoder

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d21d3q/geoframe/internal/driver"
	"github.com/d21d3q/geoframe/internal/driver/signala"
	"github.com/d21d3q/geoframe/internal/driver/signalb"
	"github.com/d21d3q/geoframe/internal/frame"
	"github.com/d21d3q/geoframe/internal/options"
	"github.com/d21d3q/geoframe/internal/records"
	"github.com/d21d3q/geoframe/internal/testutil"
)

func newDecoder(opts ...Option) *Decoder {
	reg := driver.NewRegistry().
		Register(signala.Tag, signala.Parser{}).
		Register(signalb.Tag, signalb.Parser{})
	return New(reg, opts...)
}

func TestDecodeMixedStream(t *testing.T) {
	nan := math.Float32bits(float32(math.NaN()))
	stream := testutil.Stream(
		testutil.SignalARaw(3777490, -12241940),
		testutil.RawFrame(0xBEEF, 0x11),
		testutil.SignalBBits(nan, nan),
	)

	out, err := newDecoder().Decode(context.Background(), stream)
	require.NoError(t, err)
	require.Equal(t, 3, out.Frames)
	require.Len(t, out.Coordinates, 1)
	require.InDelta(t, 37.7749, out.Coordinates[0].Latitude, 1e-5)
	require.InDelta(t, -122.4194, out.Coordinates[0].Longitude, 1e-5)
	require.Equal(t, "A", out.Coordinates[0].SourceType)
	require.Equal(t, 0, out.Coordinates[0].FrameIndex)

	require.Len(t, out.Skips, 2)
	require.Equal(t, records.ReasonUnknownSyncTag, out.Skips[0].Reason)
	require.Equal(t, frame.SyncTag(0xBEEF), out.Skips[0].Tag)
	require.Equal(t, 16, out.Skips[0].Offset)
	require.Equal(t, records.ReasonFormatError, out.Skips[1].Reason)
	require.Equal(t, 2, out.Skips[1].FrameIndex)
}

func TestDecodeKeepsFrameOrder(t *testing.T) {
	stream := testutil.Stream(
		testutil.SignalBFrame(2, 1),
		testutil.SignalAFrame(3, 4),
		testutil.RawFrame(0x0000, 0),
		testutil.SignalBFrame(6, 5),
		testutil.SignalAFrame(7, 8),
	)
	out, err := newDecoder().Decode(context.Background(), stream)
	require.NoError(t, err)
	require.Len(t, out.Coordinates, 4)
	indexes := make([]int, 0, len(out.Coordinates))
	types := make([]string, 0, len(out.Coordinates))
	for _, c := range out.Coordinates {
		indexes = append(indexes, c.FrameIndex)
		types = append(types, c.SourceType)
	}
	require.Equal(t, []int{0, 1, 3, 4}, indexes)
	require.Equal(t, []string{"B", "A", "B", "A"}, types)
}

func TestDecodeDropsTruncatedTail(t *testing.T) {
	stream := append(testutil.SignalAFrame(10, 20), 0x20, 0x20, 0x00)
	out, err := newDecoder().Decode(context.Background(), stream)
	require.NoError(t, err)
	require.Equal(t, 1, out.Frames)
	require.Equal(t, 3, out.Remainder)
	require.Len(t, out.Coordinates, 1)
	require.Empty(t, out.Skips)
}

func TestDecodeNoValidData(t *testing.T) {
	cases := map[string][]byte{
		"empty":          nil,
		"short":          make([]byte, frame.Size-1),
		"unknown only":   testutil.Stream(testutil.RawFrame(0x1234, 0), testutil.RawFrame(0x4321, 0)),
		"malformed only": testutil.SignalBBits(math.Float32bits(float32(math.NaN())), 0),
	}
	for name, stream := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := newDecoder().Decode(context.Background(), stream)
			require.ErrorIs(t, err, ErrNoValidData)
			require.Empty(t, out.Coordinates)
			require.Len(t, out.Skips, frame.Count(stream))
		})
	}
}

func TestDecodeReducedRegistry(t *testing.T) {
	dec := New(driver.NewRegistry().Register(signalb.Tag, signalb.Parser{}))
	stream := testutil.Stream(testutil.SignalAFrame(1, 1), testutil.SignalBFrame(2, 2))
	out, err := dec.Decode(context.Background(), stream)
	require.NoError(t, err)
	require.Len(t, out.Coordinates, 1)
	require.Equal(t, "B", out.Coordinates[0].SourceType)
	require.Equal(t, records.ReasonUnknownSyncTag, out.Skips[0].Reason)
	require.True(t, dec.Registry().Sealed())
}

func TestDecodeParallelMatchesSequential(t *testing.T) {
	var frames [][]byte
	for i := 0; i < 257; i++ {
		switch i % 3 {
		case 0:
			frames = append(frames, testutil.SignalAFrame(float64(i%90), float64(-i%180)))
		case 1:
			frames = append(frames, testutil.SignalBFrame(float32(i%180), float32(-i%90)))
		default:
			frames = append(frames, testutil.RawFrame(uint16(i), byte(i)))
		}
	}
	stream := testutil.Stream(frames...)
	dec := newDecoder()

	seq, err := dec.Decode(context.Background(), stream)
	require.NoError(t, err)
	par, err := dec.Decode(options.WithWorkers(context.Background(), 8), stream)
	require.NoError(t, err)
	require.Equal(t, seq, par)
}

func TestDecodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newDecoder().Decode(ctx, testutil.SignalAFrame(1, 1))
	require.ErrorIs(t, err, context.Canceled)
}

type countingObserver struct {
	mu      sync.Mutex
	decoded map[string]int
	skipped map[records.Reason]int
	streams int
	lastErr error
}

func (o *countingObserver) FrameDecoded(_ frame.SyncTag, sourceType string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decoded[sourceType]++
}

func (o *countingObserver) FrameSkipped(_ frame.SyncTag, reason records.Reason) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped[reason]++
}

func (o *countingObserver) StreamDecoded(_, _ int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams++
	o.lastErr = err
}

func TestDecodeObserver(t *testing.T) {
	obs := &countingObserver{decoded: map[string]int{}, skipped: map[records.Reason]int{}}
	dec := newDecoder(WithObserver(obs))
	stream := testutil.Stream(
		testutil.SignalAFrame(1, 1),
		testutil.SignalAFrame(2, 2),
		testutil.SignalBFrame(3, 3),
		testutil.RawFrame(0xFFFF, 0),
	)
	_, err := dec.Decode(options.WithWorkers(context.Background(), 2), stream)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 2, "B": 1}, obs.decoded)
	require.Equal(t, map[records.Reason]int{records.ReasonUnknownSyncTag: 1}, obs.skipped)
	require.Equal(t, 1, obs.streams)
	require.NoError(t, obs.lastErr)

	_, err = dec.Decode(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoValidData)
	require.ErrorIs(t, obs.lastErr, ErrNoValidData)
}

func TestDecodeStrictRange(t *testing.T) {
	stream := testutil.Stream(
		testutil.SignalARaw(10000000, 20000000),
		testutil.SignalBFrame(-122.4194, 37.7749),
	)
	dec := newDecoder()

	loose, err := dec.Decode(context.Background(), stream)
	require.NoError(t, err)
	require.Len(t, loose.Coordinates, 2)
	require.Equal(t, 100.0, loose.Coordinates[0].Latitude)

	for _, workers := range []int{1, 4} {
		ctx := options.WithStrictRange(options.WithWorkers(context.Background(), workers), true)
		strict, err := dec.Decode(ctx, stream)
		require.NoError(t, err)
		require.Len(t, strict.Coordinates, 1)
		require.Equal(t, "B", strict.Coordinates[0].SourceType)
		require.Len(t, strict.Skips, 1)
		require.Equal(t, records.ReasonFormatError, strict.Skips[0].Reason)
		require.Contains(t, strict.Skips[0].Detail, "latitude out of range")
	}
}
