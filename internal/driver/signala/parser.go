// Package signala decodes Signal A frames: latitude and longitude stored as
// little-endian int32 values in units of 1e-5 degree.
//
//	bytes 0-1   sync tag 0x2020
//	bytes 8-11  latitude  (int32 LE)
//	bytes 12-15 longitude (int32 LE)
package signala

import (
	"github.com/d21d3q/geoframe/internal/driver"
	"github.com/d21d3q/geoframe/internal/driver/wire"
	"github.com/d21d3q/geoframe/internal/frame"
	"github.com/d21d3q/geoframe/internal/records"
)

const (
	// Tag is the sync word of Signal A frames.
	Tag frame.SyncTag = 0x2020

	name      = "A"
	latOffset = 8
	lonOffset = 12
	scale     = 100000.0
)

// Parser implements driver.Parser for Signal A.
type Parser struct{}

var _ driver.Parser = Parser{}

// Name returns the source type reported on decoded coordinates.
func (Parser) Name() string { return name }

// Parse extracts the scaled integer position.
func (Parser) Parse(f frame.Frame) (records.Coordinate, error) {
	data := f.Data[:]
	latRaw, err := wire.Int32LE(name, data, latOffset)
	if err != nil {
		return records.Coordinate{}, err
	}
	lonRaw, err := wire.Int32LE(name, data, lonOffset)
	if err != nil {
		return records.Coordinate{}, err
	}
	lat := float64(latRaw) / scale
	lon := float64(lonRaw) / scale
	if err := wire.CheckFinite(name, lat, lon); err != nil {
		return records.Coordinate{}, err
	}
	return records.Coordinate{
		Latitude:   lat,
		Longitude:  lon,
		SourceType: name,
		FrameIndex: f.Index,
	}, nil
}
