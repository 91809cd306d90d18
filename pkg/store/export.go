package store

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/record"
)

// ExportSuffix is appended to the image stem to name an export file.
const ExportSuffix = "_extracted_survival_time_points.json"

// ExportPath returns the export file path for an image.
func ExportPath(imagePath string) string {
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(filepath.Dir(imagePath), stem+ExportSuffix)
}

// BuildExport resolves snap into an export document. Every level lists
// every group; a point without both coordinates, or that cannot be
// converted, is null.
func BuildExport(imagePath string, snap Snapshot) *record.Export {
	data := record.ExtractedPoints{}
	for _, l := range points.Levels {
		data[l] = map[string]*float64{}
		for _, g := range snap.Groups {
			data[l][g] = nil
			c, ok := snap.Points[points.Key{Group: g, Level: l}]
			if !ok || !c.IsSet() {
				continue
			}
			x, _, err := snap.Calibration.PixelToReal(*c.X, *c.Y)
			if err != nil {
				logrus.WithField("group", g).WithField("level", l).WithError(err).Warn("cannot convert point, exporting null")
				continue
			}
			data[l][g] = &x
		}
	}

	return &record.Export{
		Metadata: record.ExportMetadata{
			XAxisType:  snap.Axis.XAxisType,
			YAxisType:  snap.Axis.YAxisType,
			XAxisUnits: snap.Axis.XAxisUnits,
			YAxisUnits: snap.Axis.YAxisUnits,
			ImageFile:  filepath.Base(imagePath),
		},
		Data: data,
	}
}

// Export writes the export document next to the image and returns its path.
func (s *Store) Export(imagePath string, snap Snapshot) (string, error) {
	path := ExportPath(imagePath)
	err := writeJSON(path, BuildExport(imagePath, snap))
	if err != nil {
		return "", err
	}
	logrus.WithField("path", path).Info("exported extracted points")
	return path, nil
}
