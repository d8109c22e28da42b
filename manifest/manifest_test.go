package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "moorhen.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[task]
max_ticks = 60000
max_seconds = 2.5
max_stack_depth = 20

[store]
path = "world/verbs.db"

[log]
level = "debug"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Task.MaxTicks != 60000 {
		t.Errorf("task.max_ticks = %d, want 60000", m.Task.MaxTicks)
	}
	if m.Task.MaxSeconds != 2.5 {
		t.Errorf("task.max_seconds = %g, want 2.5", m.Task.MaxSeconds)
	}
	if m.Task.MaxStackDepth != 20 {
		t.Errorf("task.max_stack_depth = %d, want 20", m.Task.MaxStackDepth)
	}
	if m.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", m.Log.Level)
	}
	want := filepath.Join(m.Dir, "world", "verbs.db")
	if m.StorePath() != want {
		t.Errorf("store path = %q, want %q", m.StorePath(), want)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	// Only one table present; everything else keeps its default.
	writeManifest(t, dir, `
[store]
path = "verbs.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	d := Default()
	if m.Task != d.Task {
		t.Errorf("task = %+v, want defaults %+v", m.Task, d.Task)
	}
	if m.Log.Level != "info" {
		t.Errorf("log.level = %q, want info", m.Log.Level)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero ticks", "[task]\nmax_ticks = 0\n"},
		{"negative seconds", "[task]\nmax_seconds = -1.0\n"},
		{"zero stack", "[task]\nmax_stack_depth = 0\n"},
		{"bad level", "[log]\nlevel = \"shouting\"\n"},
		{"bad syntax", "[task\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tc.content)
			if _, err := Load(dir); err == nil {
				t.Errorf("Load accepted %q", tc.content)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[task]\nmax_ticks = 1234\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m.Task.MaxTicks != 1234 {
		t.Errorf("task.max_ticks = %d, want 1234", m.Task.MaxTicks)
	}
}

func TestFindAndLoadMissing(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m.Task != Default().Task {
		t.Errorf("missing manifest: got %+v, want defaults", m.Task)
	}
}

func TestVerbosity(t *testing.T) {
	cases := []struct {
		level string
		want  int
	}{
		{"none", -1},
		{"error", 0},
		{"warning", 1},
		{"info", 2},
		{"", 2},
		{"debug", 3},
	}
	for _, tc := range cases {
		v, err := LogConfig{Level: tc.level}.Verbosity()
		if err != nil || v != tc.want {
			t.Errorf("Verbosity(%q) = %d, %v; want %d", tc.level, v, err, tc.want)
		}
	}
}
