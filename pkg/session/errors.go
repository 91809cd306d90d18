package session

import "errors"

// Warnings returned by Dispatch. None of them change the session.
var (
	ErrNoDataset     = errors.New("no dataset loaded")
	ErrNoImage       = errors.New("no image loaded")
	ErrNoClick       = errors.New("click on the image first")
	ErrNoSelection   = errors.New("select a point in the table first")
	ErrNoGroups      = errors.New("set groups first")
	ErrNotCalibrated = errors.New("complete axis calibration first")
	ErrPointNotReady = errors.New("selected point has no survival coordinate yet")
	ErrNoData        = errors.New("no data points yet")
	ErrEmptyMessage  = errors.New("error message is empty")
)

// ErrSaveFailed wraps a failed record write. The in-memory change is kept.
var ErrSaveFailed = errors.New("failed to save record")
