package record

import (
	"encoding/json"
	"fmt"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/points"
)

// TimestampLayout is the layout of Metadata.ExtractionDate.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Status is the review state of an image.
type Status string

const (
	StatusNone  Status = "none"
	StatusDone  Status = "done"
	StatusError Status = "error"
)

// Indicator returns the one-character marker shown next to an image.
func (s Status) Indicator() string {
	switch s {
	case StatusDone:
		return "✓"
	case StatusError:
		return "✗"
	}
	return "○"
}

const (
	AxisTime     = "time"
	AxisSurvival = "survival"
)

// AxisConfig describes what each axis measures.
type AxisConfig struct {
	XAxisType  string `json:"x_axis_type"`
	YAxisType  string `json:"y_axis_type"`
	XAxisUnits string `json:"x_axis_units"`
	YAxisUnits string `json:"y_axis_units"`
}

func DefaultAxisConfig() AxisConfig {
	return AxisConfig{
		XAxisType:  AxisTime,
		YAxisType:  AxisSurvival,
		XAxisUnits: "months",
		YAxisUnits: "% cumulative survival",
	}
}

// WithXAxisType sets the X axis type; the Y axis takes the other one.
func (a AxisConfig) WithXAxisType(t string) (AxisConfig, error) {
	switch t {
	case AxisTime:
		a.XAxisType, a.YAxisType = AxisTime, AxisSurvival
	case AxisSurvival:
		a.XAxisType, a.YAxisType = AxisSurvival, AxisTime
	default:
		return a, fmt.Errorf("unknown axis type %q", t)
	}
	return a, nil
}

// ExtractedPoints holds axis values per response level and group.
type ExtractedPoints map[points.Level]map[string]*float64

// RawCoordinates holds pixel coordinates under flattened "group_level" keys.
type RawCoordinates map[string]points.Coord

// NewRawCoordinates flattens point keys.
func NewRawCoordinates(pts map[points.Key]points.Coord) RawCoordinates {
	raw := make(RawCoordinates, len(pts))
	for k, c := range pts {
		raw[k.String()] = c
	}
	return raw
}

// Points parses the flattened keys. Keys that cannot be parsed are returned
// separately.
func (r RawCoordinates) Points() (map[points.Key]points.Coord, []string) {
	out := make(map[points.Key]points.Coord, len(r))
	var malformed []string
	for s, c := range r {
		k, err := points.ParseKey(s)
		if err != nil {
			malformed = append(malformed, s)
			continue
		}
		out[k] = c
	}
	return out, malformed
}

// Metadata is the "metadata" section of a Record.
type Metadata struct {
	ImageFile      string                   `json:"image_file"`
	ExtractionDate string                   `json:"extraction_date"`
	XAxisType      string                   `json:"x_axis_type,omitempty"`
	YAxisType      string                   `json:"y_axis_type,omitempty"`
	XAxisUnits     string                   `json:"x_axis_units,omitempty"`
	YAxisUnits     string                   `json:"y_axis_units,omitempty"`
	Calibration    *calibration.Calibration `json:"calibration,omitempty"`
	// Groups is nil when the key is absent; an empty list is kept as [].
	Groups []string `json:"groups"`

	Extra map[string]json.RawMessage `json:"-"`
}

// AxisConfig overlays the axis fields present in m onto base.
func (m Metadata) AxisConfig(base AxisConfig) AxisConfig {
	if m.XAxisType != "" {
		base.XAxisType = m.XAxisType
	}
	if m.YAxisType != "" {
		base.YAxisType = m.YAxisType
	}
	if m.XAxisUnits != "" {
		base.XAxisUnits = m.XAxisUnits
	}
	if m.YAxisUnits != "" {
		base.YAxisUnits = m.YAxisUnits
	}
	return base
}

// Record is the persisted state of one image, results/<id>.json.
type Record struct {
	Metadata        Metadata        `json:"metadata"`
	ExtractedPoints ExtractedPoints `json:"extracted_points"`
	RawCoordinates  RawCoordinates  `json:"raw_coordinates"`
	Status          Status          `json:"status,omitempty"`
	Error           string          `json:"error,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// HasGroups reports whether the record carries a groups list, even empty.
func (r *Record) HasGroups() bool {
	return r.Metadata.Groups != nil
}

// ReviewStatus returns the status, StatusNone when unset.
func (r *Record) ReviewStatus() Status {
	if r.Status == StatusDone || r.Status == StatusError {
		return r.Status
	}
	return StatusNone
}

// ImageMetadata is the optional external description of an image,
// metadata/<id>.json. Only the fields the tool consumes are decoded.
type ImageMetadata struct {
	ImageDescription *string `json:"image_description,omitempty"`
	Groups           []string `json:"groups_survival_experiment,omitempty"`
}

// ExportMetadata is the "metadata" section of an Export.
type ExportMetadata struct {
	XAxisType  string `json:"x_axis_type"`
	YAxisType  string `json:"y_axis_type"`
	XAxisUnits string `json:"x_axis_units"`
	YAxisUnits string `json:"y_axis_units"`
	ImageFile  string `json:"image_file"`
}

// Export is the standalone, calibration-resolved snapshot of an image.
type Export struct {
	Metadata ExportMetadata  `json:"metadata"`
	Data     ExtractedPoints `json:"data"`
}
