package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/events"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/session"
	"github.com/survextract/survextract/pkg/types"
	"github.com/survextract/survextract/pkg/version"
)

// dispatch applies cmd and writes the result. Warnings are written with
// the session state so the caller can still render.
func (s *Server) dispatch(c *gin.Context, cmd session.Command) {
	res, err := s.sess.Dispatch(cmd)
	if err != nil {
		code := statusCode(err)
		c.IndentedJSON(code, res)
		_ = c.AbortWithError(code, err)
		return
	}
	c.IndentedJSON(http.StatusOK, res)
}

// bind decodes the JSON body into v, writing 400 on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) getState(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.sess.State())
}

func (s *Server) getView(c *gin.Context) {
	rows := s.sess.View()
	if rows == nil {
		rows = []session.Row{}
	}
	c.IndentedJSON(http.StatusOK, rows)
}

func (s *Server) getProgress(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, s.sess.State().Progress)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, types.VersionResponse{
		Version:   version.Version,
		GitCommit: version.GitCommit,
	})
}

func (s *Server) streamEvents(c *gin.Context) {
	ch, cancel := s.hub.Subscribe()
	defer cancel()

	logrus.Debug("event stream opened")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	logrus.Debug("event stream closed")
}

func (s *Server) openDataset(c *gin.Context) {
	var req types.OpenDatasetRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.OpenDataset{Root: req.Root})
}

func (s *Server) navigate(c *gin.Context) {
	var req types.NavigateRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.Navigate{Index: req.Index, UseFiltered: req.UseFiltered})
}

func (s *Server) next(c *gin.Context) {
	s.dispatch(c, session.Next{})
}

func (s *Server) prev(c *gin.Context) {
	s.dispatch(c, session.Prev{})
}

func (s *Server) setFilter(c *gin.Context) {
	var req types.FilterRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.SetIncompleteFilter{Enabled: req.Enabled})
}

func (s *Server) click(c *gin.Context) {
	var req types.ClickRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.ClickImage{X: req.X, Y: req.Y})
}

func (s *Server) setCalibrationValue(c *gin.Context) {
	var req types.CalibrationValueRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.SetCalibrationValue{Value: req.Value})
}

func (s *Server) resetCalibration(c *gin.Context) {
	s.dispatch(c, session.ResetCalibration{})
}

func (s *Server) hitAnchor(c *gin.Context) {
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.Query("y"), 64)
	if errX != nil || errY != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("%w: x and y query parameters are required", calibration.ErrInvalidInput))
		return
	}

	step, ok := s.sess.AnchorAt(x, y)
	hit := types.AnchorHit{Hit: ok}
	if ok {
		hit.Step = step.String()
	}
	c.IndentedJSON(http.StatusOK, hit)
}

func (s *Server) dragAnchor(c *gin.Context) {
	var req types.AnchorRequest
	if !bind(c, &req) {
		return
	}
	step, err := calibration.ParseStep(req.Step)
	if err != nil {
		abortWithError(c, statusCode(err), err)
		return
	}
	s.dispatch(c, session.DragAnchor{Step: step, X: req.X, Y: req.Y})
}

func (s *Server) setAxis(c *gin.Context) {
	var req types.AxisRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.SetAxisType{XType: req.XAxisType})
}

func (s *Server) setUnits(c *gin.Context) {
	var req types.UnitsRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.SetUnits{X: req.XAxisUnits, Y: req.YAxisUnits})
}

func (s *Server) setGroups(c *gin.Context) {
	var req types.GroupsRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.SetGroups{Groups: req.Groups})
}

func (s *Server) setSelection(c *gin.Context) {
	var req types.SelectionRequest
	if !bind(c, &req) {
		return
	}
	if req.Group == "" {
		s.dispatch(c, session.SelectPoint{})
		return
	}
	level, err := points.ParseLevel(req.Level)
	if err != nil {
		abortWithError(c, statusCode(err), err)
		return
	}
	s.dispatch(c, session.SelectPoint{Group: req.Group, Level: level})
}

func (s *Server) setPointValue(c *gin.Context) {
	var req types.PointValueRequest
	if !bind(c, &req) {
		return
	}
	level, err := points.ParseLevel(req.Level)
	if err != nil {
		abortWithError(c, statusCode(err), err)
		return
	}
	s.dispatch(c, session.EditPointValue{Group: req.Group, Level: level, Value: req.Value})
}

func (s *Server) clearPoints(c *gin.Context) {
	var req types.ClearPointsRequest
	if !bind(c, &req) {
		return
	}
	keys := make([]points.Key, 0, len(req.Keys))
	for _, raw := range req.Keys {
		k, err := points.ParseKey(raw)
		if err != nil {
			abortWithError(c, statusCode(err), err)
			return
		}
		keys = append(keys, k)
	}
	s.dispatch(c, session.ClearPoints{Keys: keys})
}

func (s *Server) markDone(c *gin.Context) {
	s.dispatch(c, session.MarkDone{})
}

func (s *Server) markUndone(c *gin.Context) {
	s.dispatch(c, session.MarkUndone{})
}

func (s *Server) toggleDone(c *gin.Context) {
	s.dispatch(c, session.ToggleDone{})
}

func (s *Server) reportError(c *gin.Context) {
	var req types.ErrorReportRequest
	if !bind(c, &req) {
		return
	}
	s.dispatch(c, session.ReportError{Message: req.Message})
}

func (s *Server) export(c *gin.Context) {
	s.dispatch(c, session.Export{})
}

var _ session.Publisher = (*events.EventHub)(nil)
