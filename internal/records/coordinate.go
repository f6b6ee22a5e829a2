package records

import "github.com/d21d3q/geoframe/internal/frame"

// Coordinate is a geodetic position decoded from one frame.
type Coordinate struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	SourceType string  `json:"sourceType"`
	FrameIndex int     `json:"frameIndex"`
}

// Reason classifies why a frame produced no coordinate.
type Reason string

const (
	ReasonUnknownSyncTag Reason = "unknown_sync_tag"
	ReasonFormatError    Reason = "format_error"
)

// Skip records a frame that was passed over during decoding.
type Skip struct {
	FrameIndex int           `json:"frameIndex"`
	Offset     int           `json:"offset"`
	Tag        frame.SyncTag `json:"tag"`
	Reason     Reason        `json:"reason"`
	Detail     string        `json:"detail,omitempty"`
}
