package points

import (
	"slices"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/calibration"
)

// Store maps (group, level) pairs to pixel coordinates for one image.
type Store struct {
	groups []string
	points map[Key]Coord
}

func NewStore() *Store {
	return &Store{points: make(map[Key]Coord)}
}

// Change describes what SetGroups did to the stored points.
type Change struct {
	Changed bool
	// Renamed maps old group names to new ones.
	Renamed map[string]string
	// Removed lists groups whose points were dropped.
	Removed []string
}

// Groups returns the current group list.
func (s *Store) Groups() []string {
	return slices.Clone(s.groups)
}

func (s *Store) Len() int {
	return len(s.points)
}

func (s *Store) Get(k Key) (Coord, bool) {
	c, ok := s.points[k]
	return c.clone(), ok
}

// Keys returns stored keys ordered by group list position, then level.
// Keys of groups not in the list come last, sorted.
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.points))
	seen := make(map[Key]bool, len(s.points))
	for _, g := range s.groups {
		for _, l := range Levels {
			k := Key{Group: g, Level: l}
			if _, ok := s.points[k]; ok && !seen[k] {
				keys = append(keys, k)
				seen[k] = true
			}
		}
	}
	var rest []Key
	for k := range s.points {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	return append(keys, rest...)
}

// Snapshot returns a deep copy of all points.
func (s *Store) Snapshot() map[Key]Coord {
	out := make(map[Key]Coord, len(s.points))
	for k, c := range s.points {
		out[k] = c.clone()
	}
	return out
}

// Load replaces groups and points wholesale, without rename or cleanup.
func (s *Store) Load(groups []string, pts map[Key]Coord) {
	s.groups = normalizeGroups(groups)
	s.points = make(map[Key]Coord, len(pts))
	for k, c := range pts {
		s.points[k] = c.clone()
	}
}

// SetGroups replaces the group list. When the old and new lists have the
// same non-zero length, positional differences are treated as renames and
// points are re-keyed. Otherwise points of groups no longer listed are
// dropped.
func (s *Store) SetGroups(groups []string) Change {
	prev := s.groups
	next := normalizeGroups(groups)
	s.groups = next

	var ch Change
	if slices.Equal(prev, next) {
		return ch
	}
	ch.Changed = true

	if len(prev) == len(next) && len(prev) > 0 {
		ch.Renamed = make(map[string]string)
		for i := range prev {
			if prev[i] != next[i] {
				ch.Renamed[prev[i]] = next[i]
			}
		}

		moved := make(map[Key]Coord)
		for k, c := range s.points {
			if to, ok := ch.Renamed[k.Group]; ok {
				delete(s.points, k)
				moved[Key{Group: to, Level: k.Level}] = c
			}
		}
		for k, c := range moved {
			s.points[k] = c
		}

		logrus.WithField("renamed", ch.Renamed).Debug("renamed groups")
		return ch
	}

	present := make(map[string]bool, len(next))
	for _, g := range next {
		present[g] = true
	}
	removed := make(map[string]bool)
	for k := range s.points {
		if !present[k.Group] {
			delete(s.points, k)
			removed[k.Group] = true
		}
	}
	for g := range removed {
		ch.Removed = append(ch.Removed, g)
	}
	sort.Strings(ch.Removed)

	if len(ch.Removed) > 0 {
		logrus.WithField("groups", ch.Removed).Debug("dropped points of removed groups")
	}
	return ch
}

// Reconcile adds an empty placeholder for every (group, level) pair that
// has no entry. Existing entries are never touched.
func (s *Store) Reconcile(levels []Level) int {
	added := 0
	for _, g := range s.groups {
		for _, l := range levels {
			k := Key{Group: g, Level: l}
			if _, ok := s.points[k]; !ok {
				s.points[k] = Coord{}
				added++
			}
		}
	}
	return added
}

// AutoPopulateY fills in the response level row of every point that lacks
// one. Points that already carry a row are left alone, so recalibrating
// never destroys placed X values.
func (s *Store) AutoPopulateY(c calibration.Calibration) error {
	if !c.IsComplete() {
		return calibration.ErrNotCalibrated
	}

	rows := make(map[Level]float64, len(Levels))
	for _, l := range Levels {
		y, err := c.ResponseLevelPixelY(l.Percent())
		if err != nil {
			return err
		}
		rows[l] = y
	}

	added, filled := 0, 0
	for _, g := range s.groups {
		for _, l := range Levels {
			k := Key{Group: g, Level: l}
			y := rows[l]
			existing, ok := s.points[k]
			switch {
			case !ok:
				s.points[k] = Coord{Y: &y}
				added++
			case existing.IsEmpty():
				existing.Y = &y
				s.points[k] = existing
				filled++
			case existing.Y == nil && existing.X != nil:
				existing.Y = &y
				s.points[k] = existing
				filled++
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"added":  added,
		"filled": filled,
		"total":  len(s.points),
	}).Debug("populated survival coordinates")
	return nil
}

// SetPointX places the X coordinate of a point that already has its row.
func (s *Store) SetPointX(k Key, px float64) error {
	existing, ok := s.points[k]
	if !ok || existing.Y == nil {
		return ErrPointNotReady
	}
	existing.X = &px
	s.points[k] = existing
	return nil
}

// SetPointValue places a point from a typed axis value instead of a click.
func (s *Store) SetPointValue(k Key, v float64, c calibration.Calibration) error {
	existing, ok := s.points[k]
	if !ok {
		return ErrUnknownPoint
	}

	px, err := c.RealToPixelX(v)
	if err != nil {
		return err
	}
	if existing.Y == nil {
		y, err := c.ResponseLevelPixelY(k.Level.Percent())
		if err != nil {
			return err
		}
		existing.Y = &y
	}
	existing.X = &px
	s.points[k] = existing
	return nil
}

// ClearPoint resets a point to an empty placeholder. The key is kept.
func (s *Store) ClearPoint(k Key) error {
	if _, ok := s.points[k]; !ok {
		return ErrUnknownPoint
	}
	s.points[k] = Coord{}
	return nil
}

func normalizeGroups(groups []string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
