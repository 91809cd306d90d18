package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tdewolff/test"

	"github.com/survextract/survextract/pkg/record"
)

func TestFileDefaults(t *testing.T) {
	for name, content := range map[string]*string{
		"missing": nil,
		"empty":   ptrTo("  \n"),
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if content != nil {
				if err := os.WriteFile(path, []byte(*content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			f, err := NewFile(path)
			test.Error(t, err)
			test.T(t, f.Axis(), record.DefaultAxisConfig())
			test.That(t, f.Autosave())
			test.Float(t, f.AnchorRadius(), 15)
			test.String(t, f.Socket(), DefaultSocket)
			test.String(t, f.Listen(), "")
			test.String(t, f.Dataset(), "")
		})
	}
}

func TestFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"xAxisType": "survival", "yAxisUnits": "days", "autosave": false, "anchorRadius": 8}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(path)
	test.Error(t, err)
	axis := f.Axis()
	test.String(t, axis.XAxisType, record.AxisSurvival)
	test.String(t, axis.YAxisType, record.AxisTime)
	test.String(t, axis.YAxisUnits, "days")
	test.String(t, axis.XAxisUnits, "months")
	test.That(t, !f.Autosave())
	test.Float(t, f.AnchorRadius(), 8)
}

func TestFileLoadInvalid(t *testing.T) {
	tests := []string{
		`{"xAxisType": "dose"}`,
		`{"anchorRadius": 0}`,
		`{"autosave": "yes"}`,
	}
	for _, content := range tests {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFile(path); err == nil {
			t.Errorf("%s: expected error", content)
		}
	}
}

func TestFileSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	f := NewFileFromConfig(nil, path)
	f.SetDataset("/data/km")
	f.SetAutosave(false)
	axis, err := record.DefaultAxisConfig().WithXAxisType(record.AxisSurvival)
	test.Error(t, err)
	f.SetAxis(axis)
	test.Error(t, f.Save())

	g, err := NewFile(path)
	test.Error(t, err)
	test.String(t, g.Dataset(), "/data/km")
	test.That(t, !g.Autosave())
	test.T(t, g.Axis(), axis)
	test.String(t, g.Socket(), DefaultSocket)
}

func ptrTo(s string) *string { return &s }
