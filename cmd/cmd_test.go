package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adventune/folio/config"
	"adventune/folio/events"
)

func TestIndexThenRender(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "posts"), 0755); err != nil {
		t.Fatal(err)
	}
	posts := map[string]string{
		"first":  "---\ntitle: First\ndate: 2023-01-01\n---\nOld news.\n",
		"second": "---\ntitle: Second\ndate: 2024-01-01\n---\nNew *news*.\n",
	}
	for id, body := range posts {
		if err := os.WriteFile(filepath.Join(dir, "posts", id+".txt"), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	missingConfig := filepath.Join(dir, "folio.yml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", missingConfig, "--content", dir, "index"})
	if err := Execute(); err != nil {
		t.Fatalf("index: %v", err)
	}
	if !strings.Contains(out.String(), "Indexed 2 posts") {
		t.Errorf("index output: %q", out.String())
	}

	out.Reset()
	rootCmd.SetArgs([]string{"--config", missingConfig, "--content", dir, "render", "--json", "--plain", "#second"})
	if err := Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}
	var view renderedView
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("decoding render output: %v\n%s", err, out.String())
	}
	if view.Options.Source != events.SourcePost || view.Options.PostID != "second" {
		t.Errorf("options: %+v", view.Options)
	}
	if !strings.Contains(view.HTML, `<em><span class="diffuse-text">news</span></em>`) {
		t.Errorf("html: %s", view.HTML)
	}

	out.Reset()
	rootCmd.SetArgs([]string{"--config", missingConfig, "--content", dir, "render", "--json", "--plain"})
	if err := Execute(); err != nil {
		t.Fatalf("render listing: %v", err)
	}
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("decoding render output: %v", err)
	}
	second := strings.Index(view.HTML, `data-post-id="second"`)
	first := strings.Index(view.HTML, `data-post-id="first"`)
	if second < 0 || first < 0 || second > first {
		t.Errorf("listing not newest first: %s", view.HTML)
	}
}

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", path, "--content", dir, "init"})
	if err := Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if loaded.ContentDir != dir {
		t.Errorf("content_dir: got %q, want %q", loaded.ContentDir, dir)
	}
	if loaded.FallbackPost != config.DefaultConfig().FallbackPost {
		t.Errorf("fallback_post: got %q", loaded.FallbackPost)
	}

	rootCmd.SetArgs([]string{"--config", path, "--content", dir, "init"})
	if err := Execute(); err == nil {
		t.Error("expected init to refuse an existing file")
	}
	rootCmd.SetArgs([]string{"--config", path, "--content", dir, "init", "--force"})
	if err := Execute(); err != nil {
		t.Errorf("init --force: %v", err)
	}
}
