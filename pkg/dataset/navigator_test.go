package dataset

import (
	"errors"
	"testing"

	"github.com/tdewolff/test"

	"github.com/survextract/survextract/pkg/record"
)

func newTestNavigator() *Navigator {
	return New([]string{"d", "b", "a", "c"}, map[string]record.Status{
		"a": record.StatusDone,
		"c": record.StatusError,
	})
}

func TestNavigatorOrderAndMove(t *testing.T) {
	n := newTestNavigator()
	test.T(t, n.All(), []string{"a", "b", "c", "d"})

	cur, ok := n.Current()
	test.That(t, ok)
	test.T(t, cur, "a")

	tests := []struct {
		index   int
		want    string
		wantErr error
	}{
		{2, "c", nil},
		{0, "a", nil},
		{4, "", ErrOutOfRange},
		{-1, "", ErrOutOfRange},
	}
	for _, tt := range tests {
		got, err := n.MoveTo(tt.index, false)
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("MoveTo(%d) error = %v, want %v", tt.index, err, tt.wantErr)
		}
		test.T(t, got, tt.want)
	}

	if _, err := New(nil, nil).MoveTo(0, false); !errors.Is(err, ErrNoDataset) {
		t.Errorf("empty dataset: got %v", err)
	}
}

func TestNavigatorNextPrev(t *testing.T) {
	n := newTestNavigator()

	id, err := n.Next()
	test.Error(t, err)
	test.T(t, id, "b")

	id, err = n.Prev()
	test.Error(t, err)
	test.T(t, id, "a")

	if _, err := n.Prev(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Prev at start: got %v", err)
	}
	cur, _ := n.Current()
	test.T(t, cur, "a")
}

func TestProgress(t *testing.T) {
	n := newTestNavigator()
	test.T(t, n.Progress(), Progress{Done: 1, Errors: 1, Completed: 2, Total: 4, Percentage: 50})

	n.SetStatus("b", record.StatusDone)
	test.T(t, n.Progress().Percentage, 75)

	three := New([]string{"x", "y", "z"}, map[string]record.Status{"x": record.StatusDone})
	test.T(t, three.Progress().Percentage, 33)

	test.T(t, New(nil, nil).Progress(), Progress{})
}

func TestIncompleteFilter(t *testing.T) {
	n := newTestNavigator()
	if _, err := n.MoveTo(2, false); err != nil {
		t.Fatal(err)
	}

	id, err := n.ToggleIncompleteFilter(true)
	test.Error(t, err)
	test.T(t, id, "b")
	test.T(t, n.IDs(), []string{"b", "d"})
	test.T(t, n.Index(), 0)

	id, err = n.Next()
	test.Error(t, err)
	test.T(t, id, "d")
	if _, err := n.Next(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Next past filtered end: got %v", err)
	}

	id, err = n.ToggleIncompleteFilter(false)
	test.Error(t, err)
	test.T(t, id, "d")
	test.T(t, n.Index(), 3)
	test.That(t, !n.FilterEnabled())
}

func TestIncompleteFilterAllComplete(t *testing.T) {
	n := New([]string{"a", "b"}, map[string]record.Status{
		"a": record.StatusDone,
		"b": record.StatusError,
	})

	if _, err := n.ToggleIncompleteFilter(true); !errors.Is(err, ErrAllComplete) {
		t.Fatalf("got %v", err)
	}
	test.That(t, !n.FilterEnabled())
	test.T(t, n.Len(), 2)
}

func TestIndicator(t *testing.T) {
	n := newTestNavigator()
	test.T(t, n.Indicator("a"), "✓")
	test.T(t, n.Indicator("b"), "○")
	test.T(t, n.Indicator("c"), "✗")
	test.T(t, n.Indicator("unknown"), "○")
}
