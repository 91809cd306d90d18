package calibration

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Model records calibration anchors for one image, one step at a time.
type Model struct {
	c    Calibration
	step Step
}

func New() *Model {
	return &Model{}
}

// FromCalibration hydrates a model from a persisted calibration. The step
// counter resumes after the anchors already recorded in order.
func FromCalibration(c Calibration) *Model {
	m := &Model{c: c.Clone()}
	for m.step < StepComplete {
		v, coord := m.c.anchor(m.step)
		if *v == nil || *coord == nil {
			break
		}
		m.step++
	}
	return m
}

// Calibration returns a copy of the current anchors.
func (m *Model) Calibration() Calibration {
	return m.c.Clone()
}

// Step returns the next step to record, or StepComplete.
func (m *Model) Step() Step {
	return m.step
}

func (m *Model) IsComplete() bool {
	return m.c.IsComplete()
}

// Reset clears all anchors and rewinds to the first step.
func (m *Model) Reset() {
	m.c = Calibration{}
	m.step = StepXMin
}

// RecordStep stores the clicked pixel and the typed axis value for the
// current step and advances. It returns the step that is now expected.
func (m *Model) RecordStep(p Point, value string) (Step, error) {
	if m.step >= StepComplete {
		return m.step, ErrAlreadyComplete
	}

	v, err := ParseValue(value)
	if err != nil {
		return m.step, err
	}

	val, coord := m.c.anchor(m.step)
	*val = &v
	*coord = &Point{X: p.X, Y: p.Y}
	m.step++

	return m.step, nil
}

// MoveAnchor repositions a recorded anchor, clamped to bounds when bounds
// is not empty. The axis value of the anchor is left unchanged.
func (m *Model) MoveAnchor(s Step, p Point, bounds image.Rectangle) error {
	if s < StepXMin || s >= StepComplete {
		return ErrUnknownAnchor
	}

	_, coord := m.c.anchor(s)
	if *coord == nil {
		return ErrAnchorNotSet
	}

	if !bounds.Empty() {
		p.X = math.Max(float64(bounds.Min.X), math.Min(p.X, float64(bounds.Max.X)))
		p.Y = math.Max(float64(bounds.Min.Y), math.Min(p.Y, float64(bounds.Max.Y)))
	}
	*coord = &Point{X: p.X, Y: p.Y}

	return nil
}

// PixelToReal converts with the current anchors.
func (m *Model) PixelToReal(px, py float64) (float64, float64, error) {
	return m.c.PixelToReal(px, py)
}

// RealToPixelX converts with the current anchors.
func (m *Model) RealToPixelX(v float64) (float64, error) {
	return m.c.RealToPixelX(v)
}

// ResponseLevelPixelY converts with the current anchors.
func (m *Model) ResponseLevelPixelY(percent float64) (float64, error) {
	return m.c.ResponseLevelPixelY(percent)
}

// ParseValue parses a user-typed axis value.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidInput)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInput, s)
	}

	return v, nil
}
