package calibration

import "math"

// PixelToReal converts a pixel position to axis values. The Y half is the
// exact inverse of ResponseLevelPixelY, so the y_min pixel maps to y_min.
// It deliberately does not measure from the y_max pixel, which would map
// y_min_coord to y_max. Stored values only use the X half.
func (c Calibration) PixelToReal(px, py float64) (float64, float64, error) {
	x, err := c.PixelToRealX(px)
	if err != nil {
		return 0, 0, err
	}

	span := c.YMinCoord.Y - c.YMaxCoord.Y
	if span == 0 {
		return 0, 0, ErrDegenerateCalibration
	}
	y := *c.YMin + (c.YMinCoord.Y-py)*(*c.YMax-*c.YMin)/span

	return x, y, nil
}

// PixelToRealX converts a pixel column to an X axis value.
func (c Calibration) PixelToRealX(px float64) (float64, error) {
	if !c.IsComplete() {
		return 0, ErrNotCalibrated
	}

	span := c.XMaxCoord.X - c.XMinCoord.X
	if span == 0 {
		return 0, ErrDegenerateCalibration
	}

	return *c.XMin + (px-c.XMinCoord.X)*(*c.XMax-*c.XMin)/span, nil
}

// RealToPixelX converts an X axis value back to a pixel column.
func (c Calibration) RealToPixelX(v float64) (float64, error) {
	if !c.IsComplete() {
		return 0, ErrNotCalibrated
	}

	span := *c.XMax - *c.XMin
	if span == 0 {
		return 0, ErrDegenerateCalibration
	}

	return c.XMinCoord.X + (v-*c.XMin)*(c.XMaxCoord.X-c.XMinCoord.X)/span, nil
}

// ResponseLevelPixelY returns the pixel row of a response level given as a
// percentage (0-100), interpolated between the Y anchors.
func (c Calibration) ResponseLevelPixelY(percent float64) (float64, error) {
	if !c.IsComplete() {
		return 0, ErrNotCalibrated
	}

	return c.YMinCoord.Y - (percent/100)*(c.YMinCoord.Y-c.YMaxCoord.Y), nil
}

// AnchorAt returns the first recorded anchor within radius pixels of p.
func (c Calibration) AnchorAt(p Point, radius float64) (Step, bool) {
	for s := StepXMin; s < StepComplete; s++ {
		_, coord := c.anchor(s)
		if *coord == nil {
			continue
		}
		if math.Hypot(p.X-(*coord).X, p.Y-(*coord).Y) < radius {
			return s, true
		}
	}
	return 0, false
}
