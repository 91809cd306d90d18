package main

import (
	"bytes"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/test"

	"github.com/survextract/survextract/pkg/config"
	"github.com/survextract/survextract/pkg/record"
	"github.com/survextract/survextract/pkg/session"
	"github.com/survextract/survextract/pkg/store"
)

func newDataset(t *testing.T, ids ...string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "png"), 0755); err != nil {
		t.Fatal(err)
	}
	img := imaging.New(40, 30, color.White)
	for _, id := range ids {
		if err := imaging.Save(img, filepath.Join(root, "png", id+".png")); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithConfig(t, filepath.Join(t.TempDir(), "config.json"), args...)
}

func executeWithConfig(t *testing.T, configFile string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestMarkAndProgress(t *testing.T) {
	root := newDataset(t, "a", "b", "c", "d")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"mark", "done", root, "a"}, "DONE"},
		{[]string{"mark", "error", root, "b", "axis cut off"}, "Error reported"},
		{[]string{"mark", "done", root, "c"}, "DONE"},
		{[]string{"mark", "undone", root, "c"}, "Status cleared"},
	}
	for _, tt := range tests {
		out, err := execute(t, tt.args...)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%v: output %q does not contain %q", tt.args, out, tt.want)
		}
	}

	st := store.New(root)
	for id, want := range map[string]record.Status{
		"a": record.StatusDone,
		"b": record.StatusError,
		"c": record.StatusNone,
		"d": record.StatusNone,
	} {
		if got := st.StatusOf(id); got != want {
			t.Errorf("status of %s: got %q, want %q", id, got, want)
		}
	}

	out, err := execute(t, "progress", root)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"50%", "(2/4)", "Done: 1", "Errors: 1", "Remaining: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output %q does not contain %q", out, want)
		}
	}
}

func TestOfflineErrors(t *testing.T) {
	root := newDataset(t, "a")

	tests := [][]string{
		{"view", root, "missing"},
		{"export", root, "a"},
		{"mark", "error", root, "a", "   "},
		{"progress", t.TempDir()},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestView(t *testing.T) {
	root := newDataset(t, "a")
	content := `{"metadata": {"groups": ["ctrl", "drug"]}}`
	if err := os.MkdirAll(filepath.Join(root, "results"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "results", "a.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "view", root, "a")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"50% survival:", "ctrl: -", "drug: -", "x=time (months)"} {
		if !strings.Contains(out, want) {
			t.Errorf("view output %q does not contain %q", out, want)
		}
	}
}

func TestCtlUsesConfiguredListenAddress(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(session.State{ImageID: "fig1", Index: 0, Count: 2, Phase: session.PhaseImageLoaded})
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	configFile := filepath.Join(t.TempDir(), "config.json")
	content := `{"listen": "` + srv.Listener.Addr().String() + `", "socket": "` + filepath.Join(t.TempDir(), "none.sock") + `"}`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := executeWithConfig(t, configFile, "ctl", "state")
	if err != nil {
		t.Fatalf("ctl state: %v", err)
	}
	if !strings.Contains(out, "fig1 (1/2)") {
		t.Errorf("unexpected output %q", out)
	}

	// An explicit socket is dialed even with a listen address configured.
	if _, err := executeWithConfig(t, configFile, "--socket", filepath.Join(t.TempDir(), "none.sock"), "ctl", "state"); err == nil {
		t.Error("expected an error dialing a missing socket")
	}
}

func TestConfigCommands(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")

	tests := [][]string{
		{"config", "axis", "survival", "--y-units", "days"},
		{"config", "autosave", "disable"},
	}
	for _, args := range tests {
		if _, err := executeWithConfig(t, configFile, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	if _, err := executeWithConfig(t, configFile, "config", "axis", "dose"); err == nil {
		t.Error("expected error for an unknown axis type")
	}

	f, err := config.NewFile(configFile)
	if err != nil {
		t.Fatal(err)
	}
	axis := f.Axis()
	test.String(t, axis.XAxisType, record.AxisSurvival)
	test.String(t, axis.YAxisType, record.AxisTime)
	test.String(t, axis.XAxisUnits, "months")
	test.String(t, axis.YAxisUnits, "days")
	test.That(t, !f.Autosave())

	out, err := executeWithConfig(t, configFile, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "X axis: survival (months)") {
		t.Errorf("unexpected output %q", out)
	}
}
