package store

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/record"
)

const (
	imageDir    = "png"
	metadataDir = "metadata"
	resultsDir  = "results"
)

// Store reads and writes the files of one dataset folder:
//
//	<root>/png/<id>.png
//	<root>/metadata/<id>.json
//	<root>/results/<id>.json
type Store struct {
	root string
	now  func() time.Time
}

func New(root string) *Store {
	return &Store{root: root, now: time.Now}
}

// WithClock sets the clock used for extraction timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) ImagePath(id string) string {
	return filepath.Join(s.root, imageDir, id+".png")
}

func (s *Store) ResultPath(id string) string {
	return filepath.Join(s.root, resultsDir, id+".json")
}

func (s *Store) metadataPath(id string) string {
	return filepath.Join(s.root, metadataDir, id+".json")
}

// ImageIDs returns the sorted stems of the *.png files in the dataset.
func (s *Store) ImageIDs() ([]string, error) {
	dir := filepath.Join(s.root, imageDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrapf(ErrNoDataset, "%s", dir)
		}
		return nil, pkgerrors.Wrapf(err, "failed to list %s", dir)
	}

	var ids []string
	for _, e := range entries {
		// ImagePath rebuilds the name with a lowercase extension.
		if e.IsDir() || filepath.Ext(e.Name()) != ".png" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".png"))
	}
	sort.Strings(ids)

	return ids, nil
}

// Load reads the record of an image.
func (s *Store) Load(id string) (*record.Record, error) {
	path := s.ResultPath(id)
	rec := &record.Record{}
	err := readJSON(path, rec)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, pkgerrors.Wrapf(ErrNotFound, "%s", id)
		}
		return nil, err
	}
	return rec, nil
}

// StatusOf returns the review status of an image. Any failure to read the
// record counts as StatusNone.
func (s *Store) StatusOf(id string) record.Status {
	rec, err := s.Load(id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logrus.WithError(err).WithField("id", id).Debug("status unreadable, assuming none")
		}
		return record.StatusNone
	}
	return rec.ReviewStatus()
}

// Statuses returns the status of every id.
func (s *Store) Statuses(ids []string) map[string]record.Status {
	out := make(map[string]record.Status, len(ids))
	for _, id := range ids {
		out[id] = s.StatusOf(id)
	}
	return out
}

// LoadImageMetadata reads metadata/<id>.json. A missing file yields an
// empty ImageMetadata and no error.
func (s *Store) LoadImageMetadata(id string) (*record.ImageMetadata, error) {
	md := &record.ImageMetadata{}
	err := readJSON(s.metadataPath(id), md)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return md, nil
		}
		return nil, err
	}
	return md, nil
}

func (s *Store) timestamp() string {
	return s.now().Format(record.TimestampLayout)
}
