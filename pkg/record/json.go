package record

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/survextract/survextract/pkg/points"
)

var (
	recordKeys   = []string{"metadata", "extracted_points", "raw_coordinates", "status", "error"}
	metadataKeys = []string{
		"image_file", "extraction_date",
		"x_axis_type", "y_axis_type", "x_axis_units", "y_axis_units",
		"calibration", "groups",
	}
)

type rawRecord Record

func (r Record) MarshalJSON() ([]byte, error) {
	var drop []string
	if r.ExtractedPoints == nil {
		drop = append(drop, "extracted_points")
	}
	if r.RawCoordinates == nil {
		drop = append(drop, "raw_coordinates")
	}
	return marshalObject(rawRecord(r), r.Extra, drop)
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var raw rawRecord
	extra, err := unmarshalObject(b, &raw, recordKeys)
	if err != nil {
		return err
	}
	*r = Record(raw)
	r.Extra = extra
	return nil
}

type rawMetadata Metadata

func (m Metadata) MarshalJSON() ([]byte, error) {
	var drop []string
	if m.Groups == nil {
		drop = append(drop, "groups")
	}
	return marshalObject(rawMetadata(m), m.Extra, drop)
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw rawMetadata
	extra, err := unmarshalObject(b, &raw, metadataKeys)
	if err != nil {
		return err
	}
	*m = Metadata(raw)
	m.Extra = extra
	return nil
}

// marshalObject encodes v, removes the keys in drop and adds the extra keys
// v does not define. Without extra keys or drops, v's field order is kept.
func marshalObject(v any, extra map[string]json.RawMessage, drop []string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 && len(drop) == 0 {
		return b, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for _, k := range drop {
		delete(m, k)
	}
	for k, raw := range extra {
		if _, ok := m[k]; !ok {
			m[k] = raw
		}
	}
	return json.Marshal(m)
}

// unmarshalObject decodes b into v and returns the keys not in known.
func unmarshalObject(b []byte, v any, known []string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(m, k)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

// MarshalJSON writes levels in response level order, unknown levels last.
func (e ExtractedPoints) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}

	order := make([]points.Level, 0, len(e))
	for _, l := range points.Levels {
		if _, ok := e[l]; ok {
			order = append(order, l)
		}
	}
	var rest []points.Level
	for l := range e {
		if !slices.Contains(points.Levels, l) {
			rest = append(rest, l)
		}
	}
	slices.Sort(rest)
	order = append(order, rest...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(l))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e[l])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
