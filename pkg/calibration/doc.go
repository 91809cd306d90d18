// Package calibration maps pixel positions on a chart image to axis values.
// It contains:
//
//   - Step: the four ordered anchor steps (x-min, x-max, y-min, y-max)
//   - Calibration: the persisted anchors, shared by the session and the
//     record writer so that both convert with the same math
//   - Model: the per-image step machine that records anchors from clicks
//
// Each axis is mapped independently by linear interpolation between its two
// anchors. Pixel rows grow downwards while survival values grow upwards, so
// the Y axis is inverted.
package calibration
