package session

import (
	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/record"
)

// Phase is where the current image is in its editing life cycle.
type Phase string

const (
	PhaseNoImage       Phase = "no_image"
	PhaseImageLoaded   Phase = "image_loaded"
	PhaseCalibrating   Phase = "calibrating"
	PhaseCalibrated    Phase = "calibrated"
	PhaseExtracting    Phase = "extracting"
	PhaseDone          Phase = "done"
	PhaseErrorReported Phase = "error_reported"
)

func (s *Session) phase() Phase {
	if s.imageID == "" {
		return PhaseNoImage
	}

	switch s.status {
	case record.StatusDone:
		return PhaseDone
	case record.StatusError:
		return PhaseErrorReported
	}

	if !s.cal.IsComplete() {
		if s.cal.Step() == calibration.StepXMin && s.pending == nil {
			return PhaseImageLoaded
		}
		return PhaseCalibrating
	}

	for _, k := range s.points.Keys() {
		if c, _ := s.points.Get(k); c.X != nil {
			return PhaseExtracting
		}
	}
	return PhaseCalibrated
}
