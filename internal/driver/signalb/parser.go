// Package signalb decodes Signal B frames: longitude then latitude as
// big-endian IEEE-754 singles, already in degrees.
//
//	bytes 0-1   sync tag 0x2021
//	bytes 6-9   longitude (float32 BE)
//	bytes 10-13 latitude  (float32 BE)
package signalb

import (
	"github.com/d21d3q/geoframe/internal/driver"
	"github.com/d21d3q/geoframe/internal/driver/wire"
	"github.com/d21d3q/geoframe/internal/frame"
	"github.com/d21d3q/geoframe/internal/records"
)

const (
	// Tag is the sync word of Signal B frames.
	Tag frame.SyncTag = 0x2021

	name      = "B"
	lonOffset = 6
	latOffset = 10
)

// Parser implements driver.Parser for Signal B.
type Parser struct{}

var _ driver.Parser = Parser{}

// Name returns the source type reported on decoded coordinates.
func (Parser) Name() string { return name }

// Parse extracts the float position.
func (Parser) Parse(f frame.Frame) (records.Coordinate, error) {
	data := f.Data[:]
	lon, err := wire.Float32BE(name, data, lonOffset)
	if err != nil {
		return records.Coordinate{}, err
	}
	lat, err := wire.Float32BE(name, data, latOffset)
	if err != nil {
		return records.Coordinate{}, err
	}
	if err := wire.CheckFinite(name, float64(lat), float64(lon)); err != nil {
		return records.Coordinate{}, err
	}
	return records.Coordinate{
		Latitude:   float64(lat),
		Longitude:  float64(lon),
		SourceType: name,
		FrameIndex: f.Index,
	}, nil
}
