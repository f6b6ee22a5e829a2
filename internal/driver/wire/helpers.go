// Package wire holds the bounds-checked field readers shared by the signal
// parsers. Every reader fails with a *driver.FormatError instead of panicking
// when the requested range does not fit the data.
package wire

import (
	"encoding/binary"
	"math"

	"github.com/d21d3q/geoframe/internal/driver"
)

// Int32LE reads a little-endian two's complement integer at off.
func Int32LE(variant string, data []byte, off int) (int32, error) {
	if err := check(variant, data, off, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(data[off : off+4])), nil
}

// Float32BE reads a big-endian IEEE-754 single at off.
func Float32BE(variant string, data []byte, off int) (float32, error) {
	if err := check(variant, data, off, 4); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(data[off : off+4])), nil
}

// Uint16BE reads a big-endian unsigned short at off.
func Uint16BE(variant string, data []byte, off int) (uint16, error) {
	if err := check(variant, data, off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(data[off : off+2]), nil
}

// CheckFinite rejects NaN and infinite field values.
func CheckFinite(variant string, lat, lon float64) error {
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0):
		return &driver.FormatError{Variant: variant, Reason: "latitude is not a finite number"}
	case math.IsNaN(lon) || math.IsInf(lon, 0):
		return &driver.FormatError{Variant: variant, Reason: "longitude is not a finite number"}
	}
	return nil
}

// CheckRange rejects positions outside [-90,90] latitude or [-180,180]
// longitude. Parsers do not call it; the decoder applies it on request.
func CheckRange(variant string, lat, lon float64) error {
	switch {
	case lat < -90 || lat > 90:
		return &driver.FormatError{Variant: variant, Reason: "latitude out of range"}
	case lon < -180 || lon > 180:
		return &driver.FormatError{Variant: variant, Reason: "longitude out of range"}
	}
	return nil
}

func check(variant string, data []byte, off, width int) error {
	if off < 0 || off+width > len(data) {
		return &driver.FormatError{Variant: variant, Offset: off, Width: width, Reason: "field outside frame"}
	}
	return nil
}
