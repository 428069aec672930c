package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `addr: :9999
models_dir: /tmp
default_model: m1
backend: tablelm
log:
  level: debug
  format: json
load:
  context_size: 512
  gpu_layers: 0
  threads: 3
sampling:
  max_tokens: 32
  temperature: 0.2
  seed: 7
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ModelsDir != "/tmp" || cfg.DefaultModel != "m1" || cfg.Backend != "tablelm" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log cfg: %+v", cfg.Log)
	}
	if cfg.Load.ContextSize != 512 || cfg.Load.GPULayers == nil || *cfg.Load.GPULayers != 0 || cfg.Load.Threads != 3 {
		t.Fatalf("unexpected load cfg: %+v", cfg.Load)
	}
	if cfg.Sampling.MaxTokens != 32 || cfg.Sampling.Temperature == nil || *cfg.Sampling.Temperature != 0.2 {
		t.Fatalf("unexpected sampling cfg: %+v", cfg.Sampling)
	}
	if cfg.Sampling.Seed == nil || *cfg.Sampling.Seed != 7 || cfg.Sampling.TopP != nil {
		t.Fatalf("unexpected seed/top_p: %+v", cfg.Sampling)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","models_dir":"/m","default_model":"m2","cors":{"enabled":true,"origins":["http://a"]}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ModelsDir != "/m" || cfg.DefaultModel != "m2" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.CORS.Enabled || len(cfg.CORS.Origins) != 1 || cfg.CORS.Origins[0] != "http://a" {
		t.Fatalf("unexpected cors cfg: %+v", cfg.CORS)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmodels_dir=\"/x\"\ndefault_model=\"m3\"\nmax_body_bytes=2048\n[load]\nbatch_size=64\nuse_mmap=false\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ModelsDir != "/x" || cfg.DefaultModel != "m3" || cfg.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Load.BatchSize != 64 || cfg.Load.UseMmap == nil || *cfg.Load.UseMmap {
		t.Fatalf("unexpected load cfg: %+v", cfg.Load)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
