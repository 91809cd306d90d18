package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tdewolff/test"

	"github.com/survextract/survextract/pkg/calibration"
	"github.com/survextract/survextract/pkg/points"
	"github.com/survextract/survextract/pkg/record"
	"github.com/survextract/survextract/pkg/utils/ptr"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 6000, time.Local)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir()).WithClock(func() time.Time { return fixedNow })
}

func completeCalibration() calibration.Calibration {
	return calibration.Calibration{
		XMin:      ptr.To(0.0),
		XMax:      ptr.To(100.0),
		YMin:      ptr.To(0.0),
		YMax:      ptr.To(100.0),
		XMinCoord: &calibration.Point{X: 100, Y: 400},
		XMaxCoord: &calibration.Point{X: 300, Y: 400},
		YMinCoord: &calibration.Point{X: 100, Y: 400},
		YMaxCoord: &calibration.Point{X: 100, Y: 100},
	}
}

func testSnapshot() Snapshot {
	return Snapshot{
		Axis:        record.DefaultAxisConfig(),
		Calibration: completeCalibration(),
		Groups:      []string{"A"},
		Points: map[points.Key]points.Coord{
			{Group: "A", Level: points.Level50}:  {X: ptr.To(200.0), Y: ptr.To(250.0)},
			{Group: "A", Level: points.Level25}:  {Y: ptr.To(325.0)},
			{Group: "Gone", Level: points.Level0}: {X: ptr.To(150.0), Y: ptr.To(400.0)},
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readRaw(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("invalid JSON in %s: %v", path, err)
	}
	return m
}

func compact(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestSaveNewRecord(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Save("img1", testSnapshot(), SaveOptions{UserModified: true})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	test.T(t, rec.Metadata.ImageFile, "img1.png")
	test.T(t, rec.Metadata.ExtractionDate, "2024-01-02T03:04:05.000006")
	test.T(t, rec.ReviewStatus(), record.StatusNone)

	raw := readRaw(t, s.ResultPath("img1"))
	test.T(t, compact(t, raw["extracted_points"]), `{"25%":{"A":null},"50%":{"A":50}}`)
	test.T(t, compact(t, raw["raw_coordinates"]), `{"A_25%":{"x":null,"y":325},"A_50%":{"x":200,"y":250}}`)
	if _, ok := raw["status"]; ok {
		t.Error("status written for a fresh record")
	}

	loaded, err := s.Load("img1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Metadata.Calibration.IsComplete() {
		t.Error("calibration not persisted")
	}
	test.T(t, len(loaded.Metadata.Groups), 1)
}

func TestSaveIncompleteCalibrationWritesNull(t *testing.T) {
	s := newTestStore(t)
	snap := testSnapshot()
	snap.Calibration.XMax = nil

	if _, err := s.Save("img1", snap, SaveOptions{UserModified: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw := readRaw(t, s.ResultPath("img1"))
	test.T(t, compact(t, raw["extracted_points"]), `{"25%":{"A":null},"50%":{"A":null}}`)
}

func TestSaveKeepsRecordWithoutUserChanges(t *testing.T) {
	s := newTestStore(t)
	existing := `{
  "metadata": {"image_file": "old.png", "extraction_date": "then", "groups": ["A"], "reviewer": "kim"},
  "extracted_points": {"50%": {"A": 12.5, "B": null}},
  "raw_coordinates": {"A_50%": {"x": 1, "y": 2}},
  "status": "done",
  "notes": "keep me"
}`
	writeFile(t, s.ResultPath("img1"), existing)
	before := readRaw(t, s.ResultPath("img1"))

	if _, err := s.Save("img1", testSnapshot(), SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	after := readRaw(t, s.ResultPath("img1"))
	for _, k := range []string{"extracted_points", "raw_coordinates", "status", "notes"} {
		if compact(t, before[k]) != compact(t, after[k]) {
			t.Errorf("%s changed: %s -> %s", k, before[k], after[k])
		}
	}

	var md map[string]any
	if err := json.Unmarshal(after["metadata"], &md); err != nil {
		t.Fatal(err)
	}
	test.T(t, md["image_file"], "img1.png")
	test.T(t, md["extraction_date"], "2024-01-02T03:04:05.000006")
	test.T(t, md["reviewer"], "kim")
}

func TestSaveKeepsSectionsVerbatim(t *testing.T) {
	s := newTestStore(t)
	existing := `{
  "metadata": {"image_file": "old.png", "extraction_date": "then", "x_axis_units": "<days>"},
  "extracted_points": {
    "0%": {"A": 12.0, "B": null},
    "25%": {"A": 30.50},
    "50%": {"A": null},
    "75%": {"A": 1e2},
    "100%": {"A": 7.0}
  },
  "raw_coordinates": {"A_0%": {"x": 150.0, "y": 400.0}},
  "status": "error",
  "error": "blurry"
}`
	writeFile(t, s.ResultPath("img1"), existing)
	before := readRaw(t, s.ResultPath("img1"))

	done := record.StatusDone
	rec, err := s.Save("img1", testSnapshot(), SaveOptions{Status: &done})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	test.T(t, rec.ReviewStatus(), record.StatusDone)
	test.String(t, rec.Error, "blurry")
	test.String(t, rec.Metadata.ImageFile, "img1.png")

	after := readRaw(t, s.ResultPath("img1"))
	for _, k := range []string{"extracted_points", "raw_coordinates", "error"} {
		test.String(t, compact(t, after[k]), compact(t, before[k]))
	}
	test.String(t, compact(t, after["status"]), `"done"`)

	var md map[string]json.RawMessage
	if err := json.Unmarshal(after["metadata"], &md); err != nil {
		t.Fatal(err)
	}
	test.String(t, string(md["x_axis_units"]), `"<days>"`)
	test.String(t, string(md["extraction_date"]), `"2024-01-02T03:04:05.000006"`)
}

func TestSaveStatus(t *testing.T) {
	done := record.StatusDone
	errStatus := record.StatusError

	tests := []struct {
		name       string
		existing   string
		opts       SaveOptions
		wantStatus record.Status
		wantError  string
	}{
		{
			name:       "carry over on rebuild",
			existing:   `{"metadata": {}, "status": "error", "error": "blurry"}`,
			opts:       SaveOptions{UserModified: true},
			wantStatus: record.StatusError,
			wantError:  "blurry",
		},
		{
			name:       "done keeps stored error",
			existing:   `{"metadata": {}, "status": "error", "error": "blurry"}`,
			opts:       SaveOptions{Status: &done},
			wantStatus: record.StatusDone,
			wantError:  "blurry",
		},
		{
			name:       "done keeps stored error on rebuild",
			existing:   `{"metadata": {}, "status": "error", "error": "blurry"}`,
			opts:       SaveOptions{UserModified: true, Status: &done},
			wantStatus: record.StatusDone,
			wantError:  "blurry",
		},
		{
			name:       "explicit error",
			opts:       SaveOptions{Status: &errStatus, Error: ptr.To("axis cut off")},
			wantStatus: record.StatusError,
			wantError:  "axis cut off",
		},
		{
			name:       "clear keeps nothing",
			existing:   `{"metadata": {}, "status": "error", "error": "blurry"}`,
			opts:       SaveOptions{ClearStatus: true},
			wantStatus: record.StatusNone,
		},
		{
			name:       "clear on rebuild",
			existing:   `{"metadata": {}, "status": "done"}`,
			opts:       SaveOptions{UserModified: true, ClearStatus: true},
			wantStatus: record.StatusNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if tt.existing != "" {
				writeFile(t, s.ResultPath("img1"), tt.existing)
			}

			if _, err := s.Save("img1", testSnapshot(), tt.opts); err != nil {
				t.Fatalf("Save: %v", err)
			}

			test.T(t, s.StatusOf("img1"), tt.wantStatus)
			rec, err := s.Load("img1")
			if err != nil {
				t.Fatal(err)
			}
			test.T(t, rec.Error, tt.wantError)
			raw := readRaw(t, s.ResultPath("img1"))
			if _, ok := raw["error"]; ok != (tt.wantError != "") {
				t.Errorf("error key present = %v", ok)
			}
		})
	}
}

func TestSaveClearStatus(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.ResultPath("img1"), `{"metadata": {}, "status": "done"}`)

	if _, err := s.SaveClearStatus("img1", testSnapshot(), false); err != nil {
		t.Fatal(err)
	}
	test.T(t, s.StatusOf("img1"), record.StatusNone)
}

func TestSaveBacksUpCorruptRecord(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.ResultPath("img1"), `{"metadata": `)

	if _, err := s.Load("img1"); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("Load corrupt: got %v", err)
	}

	if _, err := s.Save("img1", testSnapshot(), SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b, err := os.ReadFile(s.ResultPath("img1") + ".corrupt")
	if err != nil {
		t.Fatalf("no backup: %v", err)
	}
	test.T(t, string(b), `{"metadata": `)

	if _, err := s.Load("img1"); err != nil {
		t.Errorf("Load after save: %v", err)
	}
}

func TestStatusOf(t *testing.T) {
	s := newTestStore(t)
	writeFile(t, s.ResultPath("done"), `{"status":"done"}`)
	writeFile(t, s.ResultPath("err"), `{"status":"error","error":"x"}`)
	writeFile(t, s.ResultPath("bad"), `not json`)
	writeFile(t, s.ResultPath("empty"), ``)

	tests := map[string]record.Status{
		"done":    record.StatusDone,
		"err":     record.StatusError,
		"bad":     record.StatusNone,
		"empty":   record.StatusNone,
		"missing": record.StatusNone,
	}
	for id, want := range tests {
		if got := s.StatusOf(id); got != want {
			t.Errorf("StatusOf(%q) = %q, want %q", id, got, want)
		}
	}

	if _, err := s.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load missing: got %v", err)
	}
}

func TestImageIDs(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ImageIDs(); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}

	for _, name := range []string{"b.png", "a.png", "c.PNG", "notes.txt", "d.png.bak"} {
		writeFile(t, filepath.Join(s.Root(), "png", name), "")
	}
	if err := os.Mkdir(filepath.Join(s.Root(), "png", "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}

	ids, err := s.ImageIDs()
	if err != nil {
		t.Fatal(err)
	}
	test.T(t, ids, []string{"a", "b"})
}

func TestLoadImageMetadata(t *testing.T) {
	s := newTestStore(t)

	md, err := s.LoadImageMetadata("none")
	if err != nil {
		t.Fatal(err)
	}
	if md.ImageDescription != nil || md.Groups != nil {
		t.Errorf("expected empty metadata, got %+v", md)
	}

	writeFile(t, filepath.Join(s.Root(), "metadata", "img1.json"),
		`{"image_description": "KM plot", "groups_survival_experiment": ["Placebo", "Drug"], "other": 1}`)
	md, err = s.LoadImageMetadata("img1")
	if err != nil {
		t.Fatal(err)
	}
	test.T(t, *md.ImageDescription, "KM plot")
	test.T(t, md.Groups, []string{"Placebo", "Drug"})
}

func TestExport(t *testing.T) {
	s := newTestStore(t)
	img := filepath.Join(s.Root(), "png", "img1.png")
	snap := testSnapshot()
	snap.Groups = []string{"A", "B"}

	path, err := s.Export(img, snap)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	test.T(t, path, filepath.Join(s.Root(), "png", "img1_extracted_survival_time_points.json"))

	raw := readRaw(t, path)
	test.T(t, compact(t, raw["metadata"]),
		`{"x_axis_type":"time","y_axis_type":"survival","x_axis_units":"months","y_axis_units":"% cumulative survival","image_file":"img1.png"}`)

	var data map[string]map[string]*float64
	if err := json.Unmarshal(raw["data"], &data); err != nil {
		t.Fatal(err)
	}
	test.T(t, len(data), 5)
	test.Float(t, *data["50%"]["A"], 50)
	if data["25%"]["A"] != nil || data["50%"]["B"] != nil {
		t.Errorf("unset points should be null: %v", data)
	}
	if _, ok := data["0%"]["Gone"]; ok {
		t.Error("group not in list exported")
	}
}
