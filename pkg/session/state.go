package session

import (
	"fmt"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/dataset"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/record"
)

// State is everything a front end needs to render the session.
type State struct {
	Dataset     string `json:"dataset,omitempty"`
	ImageID     string `json:"image_id,omitempty"`
	ImagePath   string `json:"image_path,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Description string `json:"description,omitempty"`

	// Index is the position of the image in the active view, Count its size.
	Index         int              `json:"index"`
	Count         int              `json:"count"`
	FilterEnabled bool             `json:"filter_enabled"`
	Indicator     string           `json:"indicator"`
	Progress      dataset.Progress `json:"progress"`

	Phase        Phase                   `json:"phase"`
	Step         string                  `json:"step"`
	Prompt       string                  `json:"prompt"`
	PendingClick *calibration.Point      `json:"pending_click,omitempty"`
	Calibration  calibration.Calibration `json:"calibration"`
	// ResponseLines holds the pixel row of every response level once
	// calibration is complete.
	ResponseLines []ResponseLine `json:"response_lines,omitempty"`

	Axis     record.AxisConfig `json:"axis"`
	Groups   []string          `json:"groups"`
	Points   []PointState      `json:"points"`
	Selected string            `json:"selected,omitempty"`

	Status       record.Status `json:"status"`
	Error        string        `json:"error,omitempty"`
	UserModified bool          `json:"user_modified"`
}

type ResponseLine struct {
	Level points.Level `json:"level"`
	Y     float64      `json:"y"`
}

// PointState is one table row: a point with its axis value when it can be
// converted.
type PointState struct {
	Key   string       `json:"key"`
	Group string       `json:"group"`
	Level points.Level `json:"level"`
	X     *float64     `json:"x"`
	Y     *float64     `json:"y"`
	Value *float64     `json:"value"`
}

func (s *Session) state() State {
	st := State{
		Index:        -1,
		Indicator:    record.StatusNone.Indicator(),
		Phase:        s.phase(),
		Step:         s.cal.Step().String(),
		Prompt:       s.cal.Step().Prompt(),
		Calibration:  s.cal.Calibration(),
		Axis:         s.axis,
		Groups:       s.points.Groups(),
		Points:       []PointState{},
		Status:       s.status,
		Error:        s.errMsg,
		UserModified: s.userModified,
		Description:  s.description,
	}

	if s.store != nil {
		st.Dataset = s.store.Root()
	}
	if s.nav != nil {
		st.Index = s.nav.Index()
		st.Count = s.nav.Len()
		st.FilterEnabled = s.nav.FilterEnabled()
		st.Progress = s.nav.Progress()
	}
	if s.imageID != "" {
		st.ImageID = s.imageID
		st.ImagePath = s.store.ImagePath(s.imageID)
		st.Indicator = s.status.Indicator()
		st.Width = s.bounds.Dx()
		st.Height = s.bounds.Dy()
	}
	if s.pending != nil {
		p := *s.pending
		st.PendingClick = &p
		st.Prompt = fmt.Sprintf("Clicked at (%.1f, %.1f). Enter the %s value.", p.X, p.Y, s.cal.Step())
	}
	if s.selected != nil {
		st.Selected = s.selected.String()
	}

	cal := st.Calibration
	if cal.IsComplete() {
		for _, l := range points.Levels {
			if y, err := cal.ResponseLevelPixelY(l.Percent()); err == nil {
				st.ResponseLines = append(st.ResponseLines, ResponseLine{Level: l, Y: y})
			}
		}
	}

	for _, k := range s.points.Keys() {
		c, _ := s.points.Get(k)
		ps := PointState{Key: k.String(), Group: k.Group, Level: k.Level, X: c.X, Y: c.Y}
		if c.X != nil {
			if v, err := cal.PixelToRealX(*c.X); err == nil {
				ps.Value = &v
			}
		}
		st.Points = append(st.Points, ps)
	}

	return st
}

// Row is one line of the value view.
type Row struct {
	Group string       `json:"group"`
	Level points.Level `json:"level"`
	// Value is nil when the point is not set or cannot be converted.
	Value *float64 `json:"value"`
	// Set reports whether both coordinates of the point are placed.
	Set bool `json:"set"`
}

// View lists the axis value of every group at every response level, level
// by level.
func (s *Session) View() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view(s.cal.Calibration(), s.points)
}

func view(cal calibration.Calibration, ps *points.Store) []Row {
	var rows []Row
	for _, l := range points.Levels {
		for _, g := range ps.Groups() {
			r := Row{Group: g, Level: l}
			c, ok := ps.Get(points.Key{Group: g, Level: l})
			if ok && c.IsSet() {
				r.Set = true
				if x, _, err := cal.PixelToReal(*c.X, *c.Y); err == nil {
					r.Value = &x
				}
			}
			rows = append(rows, r)
		}
	}
	return rows
}
