package store

import (
	"encoding/json"
	"errors"
	"os"
	"slices"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/record"
)

// Snapshot is the live editing state of one image.
type Snapshot struct {
	Axis        record.AxisConfig
	Calibration calibration.Calibration
	Groups      []string
	Points      map[points.Key]points.Coord
	// Unparsed holds raw coordinates whose keys could not be parsed when the
	// record was loaded. They are written back unchanged.
	Unparsed record.RawCoordinates
}

type SaveOptions struct {
	// UserModified is set when the state differs from what was loaded.
	// Without it an existing record is kept as is.
	UserModified bool
	// Status overwrites the stored status when set.
	Status *record.Status
	// Error overwrites the stored error message when set.
	Error *string
	// ClearStatus removes status and error.
	ClearStatus bool
}

// Save writes the record of an image and returns what was written.
//
// An existing record is kept as is unless opts.UserModified is set; only its
// image_file and extraction_date are refreshed. Otherwise the record is
// rebuilt from snap, carrying over the stored status and error. An existing
// file that cannot be decoded is moved to <id>.json.corrupt first.
func (s *Store) Save(id string, snap Snapshot, opts SaveOptions) (*record.Record, error) {
	l := logrus.WithField("id", id)

	existing, err := s.Load(id)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		existing = nil
	case errors.Is(err, ErrCorruptRecord):
		l.WithError(err).Warn("existing record is corrupt, replacing it")
		if err := s.backupCorrupt(id); err != nil {
			return nil, err
		}
		existing = nil
	default:
		return nil, err
	}

	var rec *record.Record
	if existing != nil && !opts.UserModified {
		l.Debug("no user changes, keeping existing record")
		rec, err = s.keep(id, opts)
		if err != nil {
			return nil, err
		}
	} else {
		rec = s.build(id, snap)
		if existing != nil {
			rec.Status = existing.Status
			rec.Error = existing.Error
		}
		applyStatus(rec, opts)

		err = writeJSON(s.ResultPath(id), rec)
		if err != nil {
			return nil, err
		}
	}

	l.WithFields(logrus.Fields{
		"status":       rec.ReviewStatus(),
		"userModified": opts.UserModified,
	}).Debug("record saved")

	return rec, nil
}

// SaveClearStatus saves like Save and removes status and error.
func (s *Store) SaveClearStatus(id string, snap Snapshot, userModified bool) (*record.Record, error) {
	return s.Save(id, snap, SaveOptions{UserModified: userModified, ClearStatus: true})
}

func applyStatus(rec *record.Record, opts SaveOptions) {
	if opts.ClearStatus {
		rec.Status = ""
		rec.Error = ""
		return
	}
	if opts.Status != nil {
		rec.Status = *opts.Status
	}
	if opts.Error != nil {
		rec.Error = *opts.Error
	}
}

// keep rewrites an existing record without decoding its sections. Only
// metadata.image_file, metadata.extraction_date and the status keys named
// by opts change; everything else is written back as read.
func (s *Store) keep(id string, opts SaveOptions) (*record.Record, error) {
	path := s.ResultPath(id)
	var doc map[string]json.RawMessage
	err := readJSON(path, &doc)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}

	var md map[string]json.RawMessage
	if raw, ok := doc["metadata"]; ok {
		if err := json.Unmarshal(raw, &md); err != nil {
			return nil, pkgerrors.Wrapf(ErrCorruptRecord, "invalid metadata in %s: %v", path, err)
		}
	}
	if md == nil {
		md = map[string]json.RawMessage{}
	}
	md["image_file"] = rawString(id + ".png")
	md["extraction_date"] = rawString(s.timestamp())
	doc["metadata"], err = encodeRaw(md)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to encode metadata of %s", id)
	}

	switch {
	case opts.ClearStatus:
		delete(doc, "status")
		delete(doc, "error")
	default:
		if opts.Status != nil {
			doc["status"] = rawString(string(*opts.Status))
		}
		if opts.Error != nil {
			if *opts.Error == "" {
				delete(doc, "error")
			} else {
				doc["error"] = rawString(*opts.Error)
			}
		}
	}

	b, err := encodeRaw(doc)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to encode record %s", id)
	}
	rec := &record.Record{}
	if err := json.Unmarshal(b, rec); err != nil {
		return nil, pkgerrors.Wrapf(ErrCorruptRecord, "failed to decode record %s: %v", id, err)
	}

	err = writeJSON(path, doc)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) backupCorrupt(id string) error {
	path := s.ResultPath(id)
	err := os.Rename(path, path+".corrupt")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to back up corrupt record %s", path)
	}
	return nil
}

// build creates a fresh record from snap. Points of groups not in
// snap.Groups are left out. Extracted values go through the calibration
// stored in the record itself.
func (s *Store) build(id string, snap Snapshot) *record.Record {
	cal := snap.Calibration.Clone()
	groups := slices.Clone(snap.Groups)
	if groups == nil {
		groups = []string{}
	}

	rec := &record.Record{
		Metadata: record.Metadata{
			ImageFile:      id + ".png",
			ExtractionDate: s.timestamp(),
			XAxisType:      snap.Axis.XAxisType,
			YAxisType:      snap.Axis.YAxisType,
			XAxisUnits:     snap.Axis.XAxisUnits,
			YAxisUnits:     snap.Axis.YAxisUnits,
			Calibration:    &cal,
			Groups:         groups,
		},
	}
	rec.ExtractedPoints, rec.RawCoordinates = extract(id, cal, groups, snap.Points)

	for k, c := range snap.Unparsed {
		if _, ok := rec.RawCoordinates[k]; !ok {
			rec.RawCoordinates[k] = c
		}
	}

	return rec
}

// extract converts points to axis values. Points without an x, or with no
// usable calibration, get a null value.
func extract(id string, cal calibration.Calibration, groups []string, pts map[points.Key]points.Coord) (record.ExtractedPoints, record.RawCoordinates) {
	extracted := record.ExtractedPoints{}
	raw := record.RawCoordinates{}

	for k, c := range pts {
		if !slices.Contains(groups, k.Group) {
			continue
		}
		raw[k.String()] = c

		if extracted[k.Level] == nil {
			extracted[k.Level] = map[string]*float64{}
		}

		var value *float64
		if c.X != nil {
			v, err := cal.PixelToRealX(*c.X)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"id":  id,
					"key": k.String(),
				}).WithError(err).Warn("no usable calibration, saving value as null")
			} else {
				value = &v
			}
		}
		extracted[k.Level][k.Group] = value
	}

	return extracted, raw
}
