package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	pkgerrors "github.com/pkg/errors"

	"github.com/survextract/survextract/pkg/dataset"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/session"
	"github.com/survextract/survextract/pkg/types"
)

func (c *Client) State(ctx context.Context) (*session.State, error) {
	var st session.State
	if err := c.do(ctx, http.MethodGet, "/state", nil, &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get state")
	}
	return &st, nil
}

func (c *Client) View(ctx context.Context) ([]session.Row, error) {
	var rows []session.Row
	if err := c.do(ctx, http.MethodGet, "/view", nil, &rows); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get values")
	}
	return rows, nil
}

func (c *Client) Progress(ctx context.Context) (*dataset.Progress, error) {
	var p dataset.Progress
	if err := c.do(ctx, http.MethodGet, "/progress", nil, &p); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get progress")
	}
	return &p, nil
}

// command sends a session command. On a warning the returned result still
// carries the state.
func (c *Client) command(ctx context.Context, method, path string, body any) (*session.Result, error) {
	b, err := c.Send(ctx, method, path, body)
	var res session.Result
	if len(b) > 0 {
		if derr := json.Unmarshal(b, &res); derr != nil && err == nil {
			return nil, fmt.Errorf("failed to decode result: %w", derr)
		}
	}
	if err != nil {
		return &res, err
	}
	return &res, nil
}

func (c *Client) OpenDataset(ctx context.Context, root string) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/dataset", types.OpenDatasetRequest{Root: root})
}

func (c *Client) Navigate(ctx context.Context, index int, useFiltered bool) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/navigate", types.NavigateRequest{Index: index, UseFiltered: useFiltered})
}

func (c *Client) Next(ctx context.Context) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/next", nil)
}

func (c *Client) Prev(ctx context.Context) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/prev", nil)
}

func (c *Client) SetIncompleteFilter(ctx context.Context, enabled bool) (*session.Result, error) {
	return c.command(ctx, http.MethodPut, "/filter", types.FilterRequest{Enabled: enabled})
}

func (c *Client) Click(ctx context.Context, x, y float64) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/click", types.ClickRequest{X: x, Y: y})
}

func (c *Client) SetCalibrationValue(ctx context.Context, value string) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/calibration/value", types.CalibrationValueRequest{Value: value})
}

func (c *Client) ResetCalibration(ctx context.Context) (*session.Result, error) {
	return c.command(ctx, http.MethodDelete, "/calibration", nil)
}

func (c *Client) HitAnchor(ctx context.Context, x, y float64) (*types.AnchorHit, error) {
	q := url.Values{}
	q.Set("x", fmt.Sprint(x))
	q.Set("y", fmt.Sprint(y))
	var hit types.AnchorHit
	if err := c.do(ctx, http.MethodGet, "/calibration/anchor?"+q.Encode(), nil, &hit); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to hit-test anchors")
	}
	return &hit, nil
}

func (c *Client) DragAnchor(ctx context.Context, step string, x, y float64) (*session.Result, error) {
	return c.command(ctx, http.MethodPut, "/calibration/anchor", types.AnchorRequest{Step: step, X: x, Y: y})
}

func (c *Client) SetAxisType(ctx context.Context, xType string) (*session.Result, error) {
	return c.command(ctx, http.MethodPut, "/axis", types.AxisRequest{XAxisType: xType})
}

func (c *Client) SetUnits(ctx context.Context, x, y string) (*session.Result, error) {
	return c.command(ctx, http.MethodPut, "/units", types.UnitsRequest{XAxisUnits: x, YAxisUnits: y})
}

func (c *Client) SetGroups(ctx context.Context, groups []string) (*session.Result, error) {
	return c.command(ctx, http.MethodPut, "/groups", types.GroupsRequest{Groups: groups})
}

func (c *Client) Select(ctx context.Context, k points.Key) (*session.Result, error) {
	return c.command(ctx, http.MethodPut, "/selection", types.SelectionRequest{Group: k.Group, Level: string(k.Level)})
}

func (c *Client) SetPointValue(ctx context.Context, k points.Key, value string) (*session.Result, error) {
	return c.command(ctx, http.MethodPut, "/points/value", types.PointValueRequest{
		Group: k.Group,
		Level: string(k.Level),
		Value: value,
	})
}

func (c *Client) ClearPoints(ctx context.Context, keys ...points.Key) (*session.Result, error) {
	req := types.ClearPointsRequest{Keys: make([]string, 0, len(keys))}
	for _, k := range keys {
		req.Keys = append(req.Keys, k.String())
	}
	return c.command(ctx, http.MethodDelete, "/points", req)
}

func (c *Client) MarkDone(ctx context.Context) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/status/done", nil)
}

func (c *Client) MarkUndone(ctx context.Context) (*session.Result, error) {
	return c.command(ctx, http.MethodDelete, "/status", nil)
}

func (c *Client) ToggleDone(ctx context.Context) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/status/toggle", nil)
}

func (c *Client) ReportError(ctx context.Context, message string) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/status/error", types.ErrorReportRequest{Message: message})
}

func (c *Client) Export(ctx context.Context) (*session.Result, error) {
	return c.command(ctx, http.MethodPost, "/export", nil)
}
