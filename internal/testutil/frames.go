package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
)

const frameSize = 16

// SignalAFrame encodes a position the way Signal A transmitters do.
func SignalAFrame(lat, lon float64) []byte {
	return SignalARaw(int32(math.Round(lat*100000)), int32(math.Round(lon*100000)))
}

// SignalARaw encodes already-scaled integer fields.
func SignalARaw(lat, lon int32) []byte {
	buf := make([]byte, frameSize)
	binary.BigEndian.PutUint16(buf[0:2], 0x2020)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(lat))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(lon))
	return buf
}

// SignalBFrame encodes a position the way Signal B transmitters do.
func SignalBFrame(lon, lat float32) []byte {
	return SignalBBits(math.Float32bits(lon), math.Float32bits(lat))
}

// SignalBBits writes raw float bit patterns, useful for NaN payloads.
func SignalBBits(lon, lat uint32) []byte {
	buf := make([]byte, frameSize)
	binary.BigEndian.PutUint16(buf[0:2], 0x2021)
	binary.BigEndian.PutUint32(buf[6:10], lon)
	binary.BigEndian.PutUint32(buf[10:14], lat)
	return buf
}

// RawFrame returns a frame with the given tag and every other byte set to fill.
func RawFrame(tag uint16, fill byte) []byte {
	buf := bytes.Repeat([]byte{fill}, frameSize)
	binary.BigEndian.PutUint16(buf[0:2], tag)
	return buf
}

// Stream concatenates frames into one buffer.
func Stream(frames ...[]byte) []byte {
	return bytes.Join(frames, nil)
}
