package session

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/dataset"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/record"
	"github.com/survextract/survextract/pkg/store"
)

// Command is a user action applied by Session.Dispatch.
type Command interface {
	name() string
	apply(s *Session) (effect, error)
}

// OpenDataset switches to the dataset folder at Root and loads its first
// image.
type OpenDataset struct {
	Root string
}

func (OpenDataset) name() string { return "open-dataset" }

func (c OpenDataset) apply(s *Session) (effect, error) {
	st := store.New(c.Root)
	ids, err := st.ImageIDs()
	if err != nil {
		if errors.Is(err, store.ErrNoDataset) {
			return effect{}, fmt.Errorf("%w: %v", ErrNoDataset, err)
		}
		return effect{}, err
	}

	if err := s.autosave(); err != nil {
		return effect{}, err
	}

	s.reset()
	s.store = st
	s.nav = dataset.New(ids, st.Statuses(ids))
	logrus.WithFields(logrus.Fields{
		"root":   c.Root,
		"images": len(ids),
	}).Info("dataset opened")

	if id, ok := s.nav.Current(); ok {
		s.load(id)
	}
	return effect{loaded: true, message: fmt.Sprintf("%d images loaded", len(ids))}, nil
}

// Navigate moves to the image at Index of the filtered view (when enabled
// and UseFiltered is set) or of the full list.
type Navigate struct {
	Index       int
	UseFiltered bool
}

func (Navigate) name() string { return "navigate" }

func (c Navigate) apply(s *Session) (effect, error) {
	if err := s.requireDataset(); err != nil {
		return effect{}, err
	}
	n := len(s.nav.All())
	if c.UseFiltered {
		n = s.nav.Len()
	}
	if c.Index < 0 || c.Index >= n {
		return effect{}, dataset.ErrOutOfRange
	}
	return s.goTo(func() (string, error) { return s.nav.MoveTo(c.Index, c.UseFiltered) })
}

type Next struct{}

func (Next) name() string { return "next" }

func (Next) apply(s *Session) (effect, error) {
	if err := s.requireDataset(); err != nil {
		return effect{}, err
	}
	if s.nav.Index()+1 >= s.nav.Len() {
		return effect{}, dataset.ErrOutOfRange
	}
	return s.goTo(s.nav.Next)
}

type Prev struct{}

func (Prev) name() string { return "prev" }

func (Prev) apply(s *Session) (effect, error) {
	if err := s.requireDataset(); err != nil {
		return effect{}, err
	}
	if s.nav.Len() == 0 || s.nav.Index() == 0 {
		return effect{}, dataset.ErrOutOfRange
	}
	return s.goTo(s.nav.Prev)
}

// SetIncompleteFilter restricts navigation to images without a status.
type SetIncompleteFilter struct {
	Enabled bool
}

func (SetIncompleteFilter) name() string { return "set-incomplete-filter" }

func (c SetIncompleteFilter) apply(s *Session) (effect, error) {
	if err := s.requireDataset(); err != nil {
		return effect{}, err
	}
	if !c.Enabled {
		if _, err := s.nav.ToggleIncompleteFilter(false); err != nil {
			return effect{}, err
		}
		return effect{}, nil
	}
	if s.nav.Progress().Completed == len(s.nav.All()) {
		return effect{}, dataset.ErrAllComplete
	}

	eff, err := s.goTo(func() (string, error) { return s.nav.ToggleIncompleteFilter(true) })
	if err != nil {
		return effect{}, err
	}
	eff.message = fmt.Sprintf("%d incomplete images", s.nav.Len())
	return eff, nil
}

// ClickImage is a click on the image. Before calibration is complete it
// picks the pixel of the next anchor; afterwards it places the X of the
// selected point.
type ClickImage struct {
	X float64
	Y float64
}

func (ClickImage) name() string { return "click-image" }

func (c ClickImage) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}

	p := calibration.Point{X: c.X, Y: c.Y}
	if !s.cal.IsComplete() {
		s.pending = &p
		return effect{}, nil
	}

	if len(s.points.Groups()) == 0 {
		return effect{}, ErrNoGroups
	}
	if s.selected == nil {
		return effect{}, ErrNoSelection
	}
	if err := s.points.SetPointX(*s.selected, c.X); err != nil {
		if errors.Is(err, points.ErrPointNotReady) {
			return effect{}, ErrPointNotReady
		}
		return effect{}, err
	}

	msg := fmt.Sprintf("Point set for %s at %s", s.selected.Group, s.selected.Level)
	if v, err := s.cal.Calibration().PixelToRealX(c.X); err == nil {
		msg = fmt.Sprintf("%s: %s=%.2f", msg, s.axis.XAxisType, v)
	}
	return effect{changed: true, save: saveNormal, message: msg}, nil
}

// SetCalibrationValue records the axis value of the pending calibration
// click.
type SetCalibrationValue struct {
	Value string
}

func (SetCalibrationValue) name() string { return "set-calibration-value" }

func (c SetCalibrationValue) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	if s.pending == nil {
		return effect{}, ErrNoClick
	}

	next, err := s.cal.RecordStep(*s.pending, c.Value)
	if err != nil {
		return effect{}, err
	}
	s.pending = nil
	if next == calibration.StepComplete {
		s.populate()
	}
	return effect{changed: true, save: saveNormal, message: next.Prompt()}, nil
}

type ResetCalibration struct{}

func (ResetCalibration) name() string { return "reset-calibration" }

func (ResetCalibration) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	s.cal.Reset()
	s.pending = nil
	return effect{changed: true, save: saveNormal, message: calibration.StepXMin.Prompt()}, nil
}

// DragAnchor moves the pixel of a recorded anchor, clamped to the image.
type DragAnchor struct {
	Step calibration.Step
	X    float64
	Y    float64
}

func (DragAnchor) name() string { return "drag-anchor" }

func (c DragAnchor) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	err := s.cal.MoveAnchor(c.Step, calibration.Point{X: c.X, Y: c.Y}, s.bounds)
	if err != nil {
		return effect{}, err
	}
	return effect{changed: true, save: saveNormal}, nil
}

// SetAxisType sets what the X axis measures. The Y axis takes the other
// type and calibration starts over.
type SetAxisType struct {
	XType string
}

func (SetAxisType) name() string { return "set-axis-type" }

func (c SetAxisType) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	axis, err := s.axis.WithXAxisType(c.XType)
	if err != nil {
		return effect{}, fmt.Errorf("%w: %v", calibration.ErrInvalidInput, err)
	}
	if axis == s.axis {
		return effect{}, nil
	}
	s.axis = axis
	s.cal.Reset()
	s.pending = nil
	return effect{changed: true, save: saveNormal, message: calibration.StepXMin.Prompt()}, nil
}

// SetUnits replaces the axis units. Blank values keep the current unit.
type SetUnits struct {
	X string
	Y string
}

func (SetUnits) name() string { return "set-units" }

func (c SetUnits) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	axis := s.axis
	if x := trimmed(c.X); x != "" {
		axis.XAxisUnits = x
	}
	if y := trimmed(c.Y); y != "" {
		axis.YAxisUnits = y
	}
	changed := axis != s.axis
	s.axis = axis
	return effect{changed: changed, save: saveNormal}, nil
}

// SetGroups replaces the group list. See points.Store.SetGroups for how
// points follow renames and removals.
type SetGroups struct {
	Groups []string
}

func (SetGroups) name() string { return "set-groups" }

func (c SetGroups) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}

	ch := s.points.SetGroups(c.Groups)
	s.points.Reconcile(points.Levels)
	s.populate()

	if s.selected != nil {
		if to, ok := ch.Renamed[s.selected.Group]; ok {
			s.selected.Group = to
		}
		if _, ok := s.points.Get(*s.selected); !ok {
			s.selected = nil
		}
	}
	if s.selected == nil {
		if keys := s.points.Keys(); len(keys) > 0 {
			k := keys[0]
			s.selected = &k
		}
	}

	return effect{changed: ch.Changed, save: saveNormal}, nil
}

// SelectPoint picks the point the next click places. An empty Group clears
// the selection.
type SelectPoint struct {
	Group string
	Level points.Level
}

func (SelectPoint) name() string { return "select-point" }

func (c SelectPoint) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	if c.Group == "" {
		s.selected = nil
		return effect{}, nil
	}
	k := points.Key{Group: c.Group, Level: c.Level}
	if _, ok := s.points.Get(k); !ok {
		return effect{}, fmt.Errorf("%w: %s", points.ErrUnknownPoint, k)
	}
	s.selected = &k
	return effect{message: fmt.Sprintf("Selected: %s - %s. Click on image to set point.", k.Group, k.Level)}, nil
}

// EditPointValue places a point from a typed axis value.
type EditPointValue struct {
	Group string
	Level points.Level
	Value string
}

func (EditPointValue) name() string { return "edit-point-value" }

func (c EditPointValue) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	if !s.cal.IsComplete() {
		return effect{}, ErrNotCalibrated
	}
	v, err := calibration.ParseValue(c.Value)
	if err != nil {
		return effect{}, err
	}
	k := points.Key{Group: c.Group, Level: c.Level}
	if err := s.points.SetPointValue(k, v, s.cal.Calibration()); err != nil {
		return effect{}, err
	}
	return effect{changed: true, save: saveNormal}, nil
}

// ClearPoints resets points to empty placeholders. Survival coordinates
// are recomputed right away when calibration is complete.
type ClearPoints struct {
	Keys []points.Key
}

func (ClearPoints) name() string { return "clear-points" }

func (c ClearPoints) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	if len(c.Keys) == 0 {
		return effect{}, ErrNoSelection
	}
	for _, k := range c.Keys {
		if _, ok := s.points.Get(k); !ok {
			return effect{}, fmt.Errorf("%w: %s", points.ErrUnknownPoint, k)
		}
	}
	for _, k := range c.Keys {
		_ = s.points.ClearPoint(k)
	}
	s.populate()
	return effect{changed: true, save: saveNormal, message: fmt.Sprintf("%d points cleared", len(c.Keys))}, nil
}

type MarkDone struct{}

func (MarkDone) name() string { return "mark-done" }

func (MarkDone) apply(s *Session) (effect, error) {
	if err := s.requireStatusTarget(); err != nil {
		return effect{}, err
	}
	return effect{save: saveStatus, status: record.StatusDone, message: "Image marked as DONE ✓"}, nil
}

type MarkUndone struct{}

func (MarkUndone) name() string { return "mark-undone" }

func (MarkUndone) apply(s *Session) (effect, error) {
	if err := s.requireStatusTarget(); err != nil {
		return effect{}, err
	}
	return effect{save: saveClearStatus, message: "Status cleared - ready to mark image"}, nil
}

// ToggleDone marks a done image undone and anything else done.
type ToggleDone struct{}

func (ToggleDone) name() string { return "toggle-done" }

func (ToggleDone) apply(s *Session) (effect, error) {
	if s.status == record.StatusDone {
		return MarkUndone{}.apply(s)
	}
	return MarkDone{}.apply(s)
}

// ReportError marks the image as unusable with a message.
type ReportError struct {
	Message string
}

func (ReportError) name() string { return "report-error" }

func (c ReportError) apply(s *Session) (effect, error) {
	if err := s.requireStatusTarget(); err != nil {
		return effect{}, err
	}
	msg := trimmed(c.Message)
	if msg == "" {
		return effect{}, ErrEmptyMessage
	}
	return effect{save: saveStatus, status: record.StatusError, errMsg: &msg, message: "Error reported ✗"}, nil
}

// Export writes the standalone export file next to the image.
type Export struct{}

func (Export) name() string { return "export" }

func (Export) apply(s *Session) (effect, error) {
	if err := s.requireImage(); err != nil {
		return effect{}, err
	}
	if s.points.Len() == 0 {
		return effect{}, ErrNoData
	}
	path, err := s.store.Export(s.store.ImagePath(s.imageID), s.snapshot())
	if err != nil {
		return effect{}, err
	}
	return effect{message: "Exported to: " + path}, nil
}

func (s *Session) requireStatusTarget() error {
	if err := s.requireDataset(); err != nil {
		return err
	}
	return s.requireImage()
}
