package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/dataset"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/session"
	"github.com/survextract/survextract/pkg/types"
)

var (
	preconditionErrors = []error{
		session.ErrNoDataset,
		session.ErrNoImage,
		dataset.ErrNoDataset,
	}
	conflictErrors = []error{
		dataset.ErrOutOfRange,
		dataset.ErrAllComplete,
		session.ErrNoClick,
		session.ErrNoSelection,
		session.ErrNoGroups,
		session.ErrNotCalibrated,
		session.ErrPointNotReady,
		session.ErrNoData,
		calibration.ErrAlreadyComplete,
		calibration.ErrAnchorNotSet,
		calibration.ErrNotCalibrated,
		calibration.ErrDegenerateCalibration,
	}
	badRequestErrors = []error{
		calibration.ErrInvalidInput,
		calibration.ErrUnknownAnchor,
		points.ErrUnknownPoint,
		points.ErrMalformedKey,
		points.ErrUnknownLevel,
		session.ErrEmptyMessage,
	}
)

// statusCode maps a session error to an HTTP status.
func statusCode(err error) int {
	for _, group := range []struct {
		errs []error
		code int
	}{
		{preconditionErrors, http.StatusPreconditionFailed},
		{conflictErrors, http.StatusConflict},
		{badRequestErrors, http.StatusBadRequest},
	} {
		for _, e := range group.errs {
			if errors.Is(err, e) {
				return group.code
			}
		}
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, code int, err error) {
	c.IndentedJSON(code, types.ErrorResponse{Error: err.Error()})
	_ = c.AbortWithError(code, err)
}
