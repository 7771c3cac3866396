package cli

import (
	"flag"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/botts7/visual-mapper-sub000/pkg/imaging"
)

func contextWithConfig(t *testing.T, path string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "", "")
	if path != "" {
		if err := set.Set("config", path); err != nil {
			t.Fatal(err)
		}
	}
	return cli.NewContext(nil, set, nil)
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("maxScrolls: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(contextWithConfig(t, path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxScrolls != 7 {
		t.Errorf("expected maxScrolls 7, got %d", cfg.MaxScrolls)
	}
	// Unset fields fall back to defaults.
	if cfg.ScrollRatio != 0.40 {
		t.Errorf("expected default scrollRatio, got %f", cfg.ScrollRatio)
	}
}

func TestLoadConfigMissingFileIsError(t *testing.T) {
	if _, err := loadConfig(contextWithConfig(t, "/nonexistent/config.yaml")); err == nil {
		t.Error("expected error for explicit missing config path")
	}
}

func TestLoadConfigDefaultsWithoutFlag(t *testing.T) {
	cfg, err := loadConfig(contextWithConfig(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxScrolls != 20 {
		t.Errorf("expected default config, got maxScrolls %d", cfg.MaxScrolls)
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	if err := writePNG(path, img); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := imaging.DecodePNG(data)
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("unexpected decoded width %d", decoded.Bounds().Dx())
	}
}
