package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestScanner_ScanFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"a.gguf",
		"b.GGUF", // case-insensitive
		"c.tlm",
		"d.tlm.yaml",
		"not-model.txt",
		"model.bin",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("xyz"), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	s := NewScanner("gguf", ".tlm", ".tlm.yaml")
	models, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 4 {
		t.Fatalf("expected 4 models, got %d: %+v", len(models), models)
	}
	if models[0].ID != "a.gguf" || models[1].ID != "b.GGUF" || models[2].ID != "c.tlm" {
		t.Fatalf("unexpected order: %+v", models)
	}
	if models[3].ID != "d.tlm.yaml" || models[3].Name != "d" {
		t.Fatalf("multi-part extension not trimmed: %+v", models[3])
	}
	if models[2].Name != "c" || models[2].SizeBytes != 3 || !filepath.IsAbs(models[2].Path) {
		t.Fatalf("unexpected model entry: %+v", models[2])
	}
}

func TestScanner_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	hTmp, err := os.MkdirTemp(home, "llmcore-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	if err := os.WriteFile(filepath.Join(hTmp, "x.gguf"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var tildePath string
	if runtime.GOOS == "windows" {
		tildePath = filepath.Join("~", filepath.Base(hTmp))
	} else {
		tildePath = "~/" + filepath.Base(hTmp)
	}
	models, err := NewScanner(".gguf").Scan(tildePath)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 1 || models[0].ID != "x.gguf" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestLoadDirAndFind(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.tlm"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	models, err := LoadDir(dir, ".tlm")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := Find(models, "m"); !ok {
		t.Fatalf("expected to find by name")
	}
	if m, ok := Find(models, "m.tlm"); !ok || m.ID != "m.tlm" {
		t.Fatalf("expected to find by id: %+v", m)
	}
	if _, ok := Find(models, "nope"); ok {
		t.Fatalf("unexpected match")
	}
	if _, err := LoadDir(filepath.Join(dir, "missing"), ".tlm"); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
