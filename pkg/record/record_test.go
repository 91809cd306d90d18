package record

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tdewolff/test"

	"github.com/survextract/survextract/pkg/points"
)

func TestRecordPreservesUnknownKeys(t *testing.T) {
	in := `{
		"metadata": {"image_file": "a.png", "extraction_date": "x", "reviewer": "bob"},
		"extracted_points": {},
		"raw_coordinates": {},
		"notes": [1, 2]
	}`

	var r Record
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(r.Extra["notes"]) != "[1, 2]" {
		t.Fatalf("top-level extra not kept: %v", r.Extra)
	}
	if string(r.Metadata.Extra["reviewer"]) != `"bob"` {
		t.Fatalf("metadata extra not kept: %v", r.Metadata.Extra)
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if _, ok := back["notes"]; !ok {
		t.Errorf("notes dropped: %s", out)
	}
	md := back["metadata"].(map[string]any)
	test.T(t, md["reviewer"], "bob")
	if _, ok := md["groups"]; ok {
		t.Errorf("absent groups written back: %s", out)
	}
}

func TestGroupsPresence(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"metadata": {}}`, false},
		{`{"metadata": {"groups": []}}`, true},
		{`{"metadata": {"groups": ["A"]}}`, true},
	}

	for _, tt := range tests {
		var r Record
		if err := json.Unmarshal([]byte(tt.in), &r); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if got := r.HasGroups(); got != tt.want {
			t.Errorf("%s: HasGroups() = %v, want %v", tt.in, got, tt.want)
		}
	}

	r := Record{Metadata: Metadata{Groups: []string{}}}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"groups":[]`) {
		t.Errorf("empty groups not written: %s", out)
	}
}

func TestReviewStatus(t *testing.T) {
	tests := []struct {
		status    Status
		want      Status
		indicator string
	}{
		{"", StatusNone, "○"},
		{StatusDone, StatusDone, "✓"},
		{StatusError, StatusError, "✗"},
		{"bogus", StatusNone, "○"},
	}

	for _, tt := range tests {
		r := Record{Status: tt.status}
		got := r.ReviewStatus()
		test.T(t, got, tt.want)
		test.T(t, got.Indicator(), tt.indicator)
	}
}

func TestRawCoordinatesPoints(t *testing.T) {
	x, y := 10.0, 20.0
	raw := RawCoordinates{
		"Drug_A_50%": {X: &x, Y: &y},
		"bad":        {},
	}

	pts, malformed := raw.Points()
	if len(malformed) != 1 || malformed[0] != "bad" {
		t.Fatalf("malformed = %v", malformed)
	}
	c, ok := pts[points.Key{Group: "Drug_A", Level: points.Level50}]
	if !ok || c.X == nil || *c.X != 10 {
		t.Fatalf("points = %v", pts)
	}

	flat := NewRawCoordinates(pts)
	if _, ok := flat["Drug_A_50%"]; !ok || len(flat) != 1 {
		t.Errorf("NewRawCoordinates = %v", flat)
	}
}

func TestAxisConfig(t *testing.T) {
	a, err := DefaultAxisConfig().WithXAxisType(AxisSurvival)
	if err != nil {
		t.Fatal(err)
	}
	test.T(t, a.XAxisType, AxisSurvival)
	test.T(t, a.YAxisType, AxisTime)

	if _, err := a.WithXAxisType("distance"); err == nil {
		t.Error("expected error for unknown axis type")
	}

	md := Metadata{XAxisUnits: "days"}
	got := md.AxisConfig(DefaultAxisConfig())
	test.T(t, got.XAxisUnits, "days")
	test.T(t, got.YAxisUnits, "% cumulative survival")
}

func TestExtractedPointsLevelOrder(t *testing.T) {
	v := 12.0
	e := ExtractedPoints{
		points.Level100: {"A": nil},
		points.Level0:   {"A": &v},
		points.Level25:  {"B": nil, "A": nil},
		"17%":           {"A": nil},
	}

	b, err := json.Marshal(e)
	test.Error(t, err)
	test.String(t, string(b), `{"0%":{"A":12},"25%":{"A":null,"B":null},"100%":{"A":null},"17%":{"A":null}}`)

	var back ExtractedPoints
	test.Error(t, json.Unmarshal(b, &back))
	test.T(t, len(back), 4)

	rec := Record{ExtractedPoints: ExtractedPoints{points.Level50: {}, points.Level0: {}}}
	b, err = json.Marshal(rec)
	test.Error(t, err)
	if i, j := strings.Index(string(b), `"0%"`), strings.Index(string(b), `"50%"`); i < 0 || j < i {
		t.Errorf("levels out of order: %s", b)
	}
}
