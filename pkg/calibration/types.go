package calibration

import (
	"encoding/json"
	"fmt"
)

// Step defines the anchor steps of calibration, in recording order.
type Step int

const (
	StepXMin Step = iota
	StepXMax
	StepYMin
	StepYMax
	StepComplete
)

var stepNames = [...]string{"x_min", "x_max", "y_min", "y_max", "complete"}

func (s Step) String() string {
	if s < StepXMin || s > StepComplete {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Prompt is the instruction shown to the user while waiting for this step.
func (s Step) Prompt() string {
	switch s {
	case StepXMin:
		return "Click on X-axis minimum point"
	case StepXMax:
		return "Click on X-axis maximum point"
	case StepYMin:
		return "Click on Y-axis minimum point"
	case StepYMax:
		return "Click on Y-axis maximum point"
	case StepComplete:
		return "Calibration complete! Set groups to start extracting data."
	}
	return ""
}

// ParseStep is the inverse of Step.String for the four anchor steps.
func ParseStep(s string) (Step, error) {
	for i := StepXMin; i < StepComplete; i++ {
		if stepNames[i] == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAnchor, s)
}

// Point is a pixel position on the source image. Records store it as a
// two-element array.
type Point struct {
	X float64
	Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var xy []float64
	if err := json.Unmarshal(b, &xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("pixel coordinate must have 2 elements, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// Calibration holds the two anchors of each axis. Every field is nullable;
// the calibration is usable only when all eight are set.
type Calibration struct {
	XMin      *float64 `json:"x_min"`
	XMax      *float64 `json:"x_max"`
	YMin      *float64 `json:"y_min"`
	YMax      *float64 `json:"y_max"`
	XMinCoord *Point   `json:"x_min_coord"`
	XMaxCoord *Point   `json:"x_max_coord"`
	YMinCoord *Point   `json:"y_min_coord"`
	YMaxCoord *Point   `json:"y_max_coord"`
}

// IsComplete reports whether all eight fields are set.
func (c Calibration) IsComplete() bool {
	return c.XMin != nil && c.XMax != nil && c.YMin != nil && c.YMax != nil &&
		c.XMinCoord != nil && c.XMaxCoord != nil && c.YMinCoord != nil && c.YMaxCoord != nil
}

// Clone returns a deep copy.
func (c Calibration) Clone() Calibration {
	return Calibration{
		XMin:      cloneFloat(c.XMin),
		XMax:      cloneFloat(c.XMax),
		YMin:      cloneFloat(c.YMin),
		YMax:      cloneFloat(c.YMax),
		XMinCoord: clonePoint(c.XMinCoord),
		XMaxCoord: clonePoint(c.XMaxCoord),
		YMinCoord: clonePoint(c.YMinCoord),
		YMaxCoord: clonePoint(c.YMaxCoord),
	}
}

func (c *Calibration) anchor(s Step) (**float64, **Point) {
	switch s {
	case StepXMin:
		return &c.XMin, &c.XMinCoord
	case StepXMax:
		return &c.XMax, &c.XMaxCoord
	case StepYMin:
		return &c.YMin, &c.YMinCoord
	case StepYMax:
		return &c.YMax, &c.YMaxCoord
	}
	return nil, nil
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func clonePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
