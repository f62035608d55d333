package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "omadb.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Format != FormatText {
		t.Errorf("expected format=text, got %s", cfg.Format)
	}
	if !cfg.Check {
		t.Error("expected check=true")
	}
	if !slices.Equal(cfg.Axes, oma.Axes) {
		t.Errorf("expected all title axes, got %v", cfg.Axes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.Axes[0] = oma.AxisGenre
	if oma.Axes[0] != oma.AxisUpload {
		t.Error("Default must not share the package axis list")
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("PLAYER", "/media/player")
	path := writeConfig(t, `
root: ${PLAYER}/OMGAUDIO
axes: [artist, 2D]
format: yaml
concurrency: 2
catalog_size: 1200
check: false
allow_unknown_classes: true
log:
  level: debug
  development: true
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Root != "/media/player/OMGAUDIO" {
		t.Errorf("root = %s", cfg.Root)
	}
	if !slices.Equal(cfg.Axes, []oma.Axis{oma.AxisArtist, oma.AxisArtistAlbum}) {
		t.Errorf("axes = %v", cfg.Axes)
	}
	if cfg.Format != FormatYAML || cfg.Concurrency != 2 || cfg.CatalogSize != 1200 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Check || !cfg.AllowUnknownClasses {
		t.Errorf("check=%v allow_unknown_classes=%v", cfg.Check, cfg.AllowUnknownClasses)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("log = %+v", cfg.Log)
	}

	if n := len(cfg.CatalogOptions()); n != 5 {
		t.Errorf("got %d catalog options, want 5", n)
	}
	if len(cfg.DecodeOptions()) != 1 || len(cfg.CheckOptions()) != 1 {
		t.Error("expected decode and check options")
	}
}

func TestLoadFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "root: /tmp/OMGAUDIO\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Format != FormatText || !cfg.Check || len(cfg.Axes) != len(oma.Axes) {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    errors.Kind
	}{
		{"bad yaml", "root: [unterminated\n", errors.KindInvalidInput},
		{"unknown axis", "axes: [composer]\n", errors.KindInvalidInput},
		{"bad format", "format: xml\n", errors.KindInvalidInput},
		{"negative concurrency", "concurrency: -1\n", errors.KindInvalidInput},
		{"bad level", "log:\n  level: loud\n", errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			found := errors.Flatten(err)
			if len(found) == 0 {
				t.Fatalf("err = %v, want structured error", err)
			}
			if found[0].Kind != tt.kind || found[0].Phase != errors.PhaseConfig {
				t.Errorf("err = %v, want [config] %s", found[0], tt.kind)
			}
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing file: err = %v, want not_found", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load without %s: %v", EnvVar, err)
	}
	if cfg.Root != "" || cfg.Format != FormatText {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	t.Setenv(EnvVar, writeConfig(t, "root: /srv/OMGAUDIO\nformat: json\n"))
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Root != "/srv/OMGAUDIO" || cfg.Format != FormatJSON {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Format = "xml"
	cfg.Concurrency = -2
	cfg.CatalogSize = -1

	if n := len(errors.Flatten(cfg.Validate())); n != 3 {
		t.Errorf("got %d errors, want 3", n)
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	l, err := cfg.Logger()
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if !l.Core().Enabled(-1) {
		t.Error("debug level should be enabled")
	}

	cfg.Log.Level = "error"
	cfg.Log.Development = true
	l, err = cfg.Logger()
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if l.Core().Enabled(0) {
		t.Error("info level should be disabled")
	}
}
