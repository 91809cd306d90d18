// Package dataset keeps track of where the user is in a folder of images and
// how far the review has progressed.
package dataset

import (
	"errors"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/survextract/survextract/pkg/record"
)

var (
	ErrNoDataset   = errors.New("no dataset loaded")
	ErrOutOfRange  = errors.New("image index out of range")
	ErrAllComplete = errors.New("all images are complete")
)

// Progress summarizes review statuses across a dataset.
type Progress struct {
	Done      int `json:"done"`
	Errors    int `json:"errors"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
	// Percentage is floor(100*Completed/Total), 0 for an empty dataset.
	Percentage int `json:"percentage"`
}

// Navigator holds the sorted image ids of a dataset, the current image and
// the optional incomplete-only view.
//
// The filtered view is computed when the filter is enabled and is not
// updated as statuses change afterwards.
type Navigator struct {
	ids      []string
	statuses map[string]record.Status
	filtered []string
	filterOn bool
	current  string
}

// New creates a navigator positioned on the first image.
func New(ids []string, statuses map[string]record.Status) *Navigator {
	n := &Navigator{
		ids:      slices.Clone(ids),
		statuses: make(map[string]record.Status, len(ids)),
	}
	slices.Sort(n.ids)
	n.ids = slices.Compact(n.ids)
	for _, id := range n.ids {
		n.statuses[id] = record.StatusNone
		if s, ok := statuses[id]; ok {
			n.statuses[id] = s
		}
	}
	if len(n.ids) > 0 {
		n.current = n.ids[0]
	}
	return n
}

func (n *Navigator) list(useFiltered bool) []string {
	if useFiltered && n.filterOn {
		return n.filtered
	}
	return n.ids
}

// IDs returns the ids of the active view.
func (n *Navigator) IDs() []string {
	return slices.Clone(n.list(true))
}

// All returns every id in the dataset.
func (n *Navigator) All() []string {
	return slices.Clone(n.ids)
}

// Len returns the size of the active view.
func (n *Navigator) Len() int {
	return len(n.list(true))
}

// Current returns the id of the current image.
func (n *Navigator) Current() (string, bool) {
	return n.current, n.current != ""
}

// Index returns the position of the current image in the active view, or -1.
func (n *Navigator) Index() int {
	return slices.Index(n.list(true), n.current)
}

func (n *Navigator) FilterEnabled() bool {
	return n.filterOn
}

// MoveTo makes the image at index of the filtered (when enabled and
// requested) or full list current and returns its id. Loading it is up to
// the caller.
func (n *Navigator) MoveTo(index int, useFiltered bool) (string, error) {
	if len(n.ids) == 0 {
		return "", ErrNoDataset
	}
	l := n.list(useFiltered)
	if index < 0 || index >= len(l) {
		return "", ErrOutOfRange
	}
	n.current = l[index]
	return n.current, nil
}

// Next moves to the following image of the active view.
func (n *Navigator) Next() (string, error) {
	return n.MoveTo(n.Index()+1, true)
}

// Prev moves to the preceding image of the active view.
func (n *Navigator) Prev() (string, error) {
	i := n.Index()
	if i < 0 {
		i = n.Len()
	}
	return n.MoveTo(i-1, true)
}

// SetStatus records a new status for an image.
func (n *Navigator) SetStatus(id string, s record.Status) {
	if _, ok := n.statuses[id]; ok {
		n.statuses[id] = s
	}
}

func (n *Navigator) Status(id string) record.Status {
	if s, ok := n.statuses[id]; ok {
		return s
	}
	return record.StatusNone
}

// Indicator returns ✓, ✗ or ○ for an image.
func (n *Navigator) Indicator(id string) string {
	return n.Status(id).Indicator()
}

func (n *Navigator) Progress() Progress {
	var p Progress
	p.Total = len(n.ids)
	for _, id := range n.ids {
		switch n.statuses[id] {
		case record.StatusDone:
			p.Done++
		case record.StatusError:
			p.Errors++
		}
	}
	p.Completed = p.Done + p.Errors
	if p.Total > 0 {
		p.Percentage = 100 * p.Completed / p.Total
	}
	return p
}

// ToggleIncompleteFilter switches the incomplete-only view.
//
// Enabling recomputes the view and moves to its first image; when every
// image is complete it returns ErrAllComplete and the filter stays off.
// Disabling keeps the current image, which is always part of the full list.
func (n *Navigator) ToggleIncompleteFilter(enabled bool) (string, error) {
	if len(n.ids) == 0 {
		return "", ErrNoDataset
	}

	if !enabled {
		n.filterOn = false
		n.filtered = nil
		if slices.Index(n.ids, n.current) < 0 {
			n.current = n.ids[len(n.ids)-1]
		}
		return n.current, nil
	}

	var filtered []string
	for _, id := range n.ids {
		if n.statuses[id] == record.StatusNone {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		n.filterOn = false
		n.filtered = nil
		return "", ErrAllComplete
	}

	n.filtered = filtered
	n.filterOn = true
	n.current = filtered[0]
	logrus.WithFields(logrus.Fields{
		"incomplete": len(filtered),
		"total":      len(n.ids),
	}).Debug("incomplete filter enabled")

	return n.current, nil
}
