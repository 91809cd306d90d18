// Package types holds the request and response bodies shared by the session
// server and its client.
package types

type OpenDatasetRequest struct {
	Root string `json:"root"`
}

type NavigateRequest struct {
	Index       int  `json:"index"`
	UseFiltered bool `json:"use_filtered"`
}

type FilterRequest struct {
	Enabled bool `json:"enabled"`
}

// ClickRequest is a click in image pixel coordinates.
type ClickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CalibrationValueRequest struct {
	Value string `json:"value"`
}

// AnchorRequest moves an anchor. Step is one of x_min, x_max, y_min, y_max.
type AnchorRequest struct {
	Step string  `json:"step"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// AnchorHit is the result of an anchor hit test.
type AnchorHit struct {
	Step string `json:"step,omitempty"`
	Hit  bool   `json:"hit"`
}

type AxisRequest struct {
	XAxisType string `json:"x_axis_type"`
}

type UnitsRequest struct {
	XAxisUnits string `json:"x_axis_units"`
	YAxisUnits string `json:"y_axis_units"`
}

type GroupsRequest struct {
	Groups []string `json:"groups"`
}

// SelectionRequest selects a point. An empty group clears the selection.
type SelectionRequest struct {
	Group string `json:"group"`
	Level string `json:"level"`
}

type PointValueRequest struct {
	Group string `json:"group"`
	Level string `json:"level"`
	Value string `json:"value"`
}

// ClearPointsRequest lists points by their "group_level" keys.
type ClearPointsRequest struct {
	Keys []string `json:"keys"`
}

type ErrorReportRequest struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
}
