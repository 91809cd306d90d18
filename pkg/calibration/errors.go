package calibration

import "errors"

var (
	// ErrInvalidInput is returned when an anchor value is not a finite number.
	ErrInvalidInput = errors.New("invalid calibration value")

	// ErrAlreadyComplete is returned when recording past the last step.
	ErrAlreadyComplete = errors.New("calibration already complete, reset first")

	// ErrNotCalibrated is returned by conversions on an incomplete calibration.
	ErrNotCalibrated = errors.New("axis calibration is not complete")

	// ErrDegenerateCalibration is returned when both anchors of an axis
	// coincide, so the axis has no slope.
	ErrDegenerateCalibration = errors.New("degenerate calibration: anchors coincide")

	// ErrUnknownAnchor is returned for a step that does not name an anchor.
	ErrUnknownAnchor = errors.New("unknown calibration anchor")

	// ErrAnchorNotSet is returned when dragging an anchor that was never recorded.
	ErrAnchorNotSet = errors.New("calibration anchor not set")
)
