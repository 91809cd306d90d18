// Package session owns the single editing session of the digitizer: the
// current image, its calibration and points, and the dataset around it.
//
// Every user action is a Command applied through Session.Dispatch, which
// serializes them and writes the record of the current image when a command
// asks for it.
package session

import (
	"errors"
	"image"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/dataset"
	"github.com/survextract/survextract/pkg/events"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/record"
	"github.com/survextract/survextract/pkg/store"
)

// Publisher receives render notifications. *events.EventHub implements it.
type Publisher interface {
	Publish(name string, payload any)
}

type Options struct {
	// Axis is the axis configuration of images without a record.
	Axis record.AxisConfig
	// Autosave writes the record after every change. Status changes are
	// always written.
	Autosave bool
	// AnchorRadius is the hit radius, in pixels, of calibration anchors.
	AnchorRadius float64
	Publisher    Publisher
}

func DefaultOptions() Options {
	return Options{
		Axis:         record.DefaultAxisConfig(),
		Autosave:     true,
		AnchorRadius: 15,
	}
}

type Session struct {
	mu   sync.Mutex
	opts Options

	store *store.Store
	nav   *dataset.Navigator

	imageID     string
	bounds      image.Rectangle
	description string
	axis        record.AxisConfig
	cal         *calibration.Model
	points      *points.Store
	unparsed    record.RawCoordinates
	status      record.Status
	errMsg      string

	pending  *calibration.Point
	selected *points.Key

	userModified bool
	loading      bool
}

func New(opts Options) *Session {
	s := &Session{opts: opts}
	s.reset()
	return s
}

// saveKind is the kind of write a command asks for.
type saveKind int

const (
	saveNone saveKind = iota
	saveNormal
	saveStatus
	saveClearStatus
)

type effect struct {
	changed bool
	save    saveKind
	status  record.Status
	errMsg  *string
	loaded  bool
	message string
}

// Result is what Dispatch hands back to the caller.
type Result struct {
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// Dispatch applies cmd. Warnings leave the session untouched. A failed
// write is returned wrapped in ErrSaveFailed after the change was applied.
func (s *Session) Dispatch(cmd Command) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := logrus.WithField("command", cmd.name())

	eff, err := cmd.apply(s)
	if err != nil {
		l.WithError(err).Debug("command rejected")
		return Result{State: s.state(), Message: err.Error()}, err
	}

	if eff.changed {
		s.userModified = true
	}

	var saveErr error
	switch eff.save {
	case saveNormal:
		saveErr = s.autosave()
	case saveStatus:
		saveErr = s.saveStatus(eff.status, eff.errMsg)
	case saveClearStatus:
		saveErr = s.saveClearStatus()
	}

	st := s.state()
	switch {
	case eff.loaded:
		s.publish(events.SessionLoaded, st)
	case eff.changed || eff.save != saveNone:
		s.publish(events.SessionChanged, st)
	}

	if saveErr != nil {
		return Result{State: st, Message: saveErr.Error()}, saveErr
	}
	l.Debug("command applied")
	return Result{State: st, Message: eff.message}, nil
}

// Close writes the current record one last time.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autosave()
}

// State returns a render snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// AnchorAt returns the calibration anchor under a pixel, if any.
func (s *Session) AnchorAt(x, y float64) (calibration.Step, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cal.Calibration().AnchorAt(calibration.Point{X: x, Y: y}, s.opts.AnchorRadius)
}

func (s *Session) publish(name string, payload any) {
	if s.opts.Publisher != nil {
		s.opts.Publisher.Publish(name, payload)
	}
}

// reset clears everything tied to the current image.
func (s *Session) reset() {
	s.imageID = ""
	s.bounds = image.Rectangle{}
	s.description = ""
	s.axis = s.opts.Axis
	s.cal = calibration.New()
	s.points = points.NewStore()
	s.unparsed = nil
	s.status = record.StatusNone
	s.errMsg = ""
	s.pending = nil
	s.selected = nil
	s.userModified = false
}

func (s *Session) requireDataset() error {
	if s.store == nil || s.nav == nil {
		return ErrNoDataset
	}
	return nil
}

func (s *Session) requireImage() error {
	if s.imageID == "" {
		return ErrNoImage
	}
	return nil
}

func (s *Session) snapshot() store.Snapshot {
	return store.Snapshot{
		Axis:        s.axis,
		Calibration: s.cal.Calibration(),
		Groups:      s.points.Groups(),
		Points:      s.points.Snapshot(),
		Unparsed:    s.unparsed,
	}
}

// canSave reports whether the current image may be written.
func (s *Session) canSave() bool {
	return s.store != nil && s.imageID != "" && !s.loading
}

func (s *Session) autosave() error {
	if !s.opts.Autosave || !s.canSave() {
		return nil
	}
	_, err := s.store.Save(s.imageID, s.snapshot(), store.SaveOptions{UserModified: s.userModified})
	return s.saved(err)
}

func (s *Session) saveStatus(status record.Status, msg *string) error {
	if !s.canSave() {
		return nil
	}
	rec, err := s.store.Save(s.imageID, s.snapshot(), store.SaveOptions{
		UserModified: s.userModified,
		Status:       &status,
		Error:        msg,
	})
	if err == nil {
		s.setStatus(rec.ReviewStatus(), rec.Error)
	}
	return s.saved(err)
}

func (s *Session) saveClearStatus() error {
	if !s.canSave() {
		return nil
	}
	_, err := s.store.SaveClearStatus(s.imageID, s.snapshot(), s.userModified)
	if err == nil {
		s.setStatus(record.StatusNone, "")
	}
	return s.saved(err)
}

func (s *Session) setStatus(status record.Status, msg string) {
	s.status = status
	s.errMsg = msg
	s.nav.SetStatus(s.imageID, status)
	s.publish(events.StatusChanged, events.StatusChangedEvent{
		ID:     s.imageID,
		Status: string(status),
		Error:  msg,
	})
}

func (s *Session) saved(err error) error {
	if err == nil {
		return nil
	}
	logrus.WithError(err).WithField("id", s.imageID).Error("failed to save record")
	return pkgerrors.Wrapf(ErrSaveFailed, "%s: %v", s.imageID, err)
}

// load makes id the current image: reset, image bounds, record, then the
// external metadata for what the record does not provide.
func (s *Session) load(id string) {
	s.loading = true
	defer func() {
		s.loading = false
		s.userModified = false
	}()

	s.reset()
	s.imageID = id
	l := logrus.WithField("id", id)

	img, err := imaging.Open(s.store.ImagePath(id))
	if err != nil {
		l.WithError(err).Warn("failed to read image, anchors will not be clamped")
	} else {
		s.bounds = img.Bounds()
	}

	hasGroups := false
	rec, err := s.store.Load(id)
	switch {
	case err == nil:
		hasGroups = s.hydrate(rec)
	case errors.Is(err, store.ErrNotFound):
		l.Debug("no record yet")
	default:
		l.WithError(err).Warn("failed to load record, starting fresh")
	}

	s.points.Reconcile(points.Levels)
	s.populate()

	md, err := s.store.LoadImageMetadata(id)
	if err != nil {
		l.WithError(err).Warn("failed to load image metadata")
		md = &record.ImageMetadata{}
	}
	if md.ImageDescription != nil {
		s.description = *md.ImageDescription
	}
	if !hasGroups && len(s.points.Groups()) == 0 && len(md.Groups) > 0 {
		l.WithField("groups", md.Groups).Debug("groups taken from image metadata")
		s.points.Load(md.Groups, s.points.Snapshot())
		s.points.Reconcile(points.Levels)
		s.populate()
	}

	l.WithFields(logrus.Fields{
		"calibrated": s.cal.IsComplete(),
		"groups":     len(s.points.Groups()),
		"points":     s.points.Len(),
		"status":     s.status,
	}).Info("image loaded")
}

// hydrate copies a record into the session and reports whether it carried
// a groups list.
func (s *Session) hydrate(rec *record.Record) bool {
	s.axis = rec.Metadata.AxisConfig(s.axis)
	if rec.Metadata.Calibration != nil {
		s.cal = calibration.FromCalibration(*rec.Metadata.Calibration)
	}

	pts, malformed := rec.RawCoordinates.Points()
	if len(malformed) > 0 {
		s.unparsed = make(record.RawCoordinates, len(malformed))
		for _, k := range malformed {
			s.unparsed[k] = rec.RawCoordinates[k]
		}
		logrus.WithField("keys", malformed).Warn("ignoring malformed point keys")
	}
	s.points.Load(rec.Metadata.Groups, pts)

	s.status = rec.ReviewStatus()
	s.errMsg = rec.Error
	return rec.HasGroups()
}

// populate fills in survival coordinates when calibration allows it.
func (s *Session) populate() {
	if !s.cal.IsComplete() {
		return
	}
	err := s.points.AutoPopulateY(s.cal.Calibration())
	if err != nil {
		logrus.WithError(err).WithField("id", s.imageID).Warn("cannot compute survival coordinates")
	}
}

// goTo saves the current image, lets move pick the next one and loads it.
func (s *Session) goTo(move func() (string, error)) (effect, error) {
	if err := s.autosave(); err != nil {
		return effect{}, err
	}
	id, err := move()
	if err != nil {
		return effect{}, err
	}
	s.load(id)
	return effect{loaded: true}, nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
