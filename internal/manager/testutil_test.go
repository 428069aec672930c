package manager

import (
	"path/filepath"
	"testing"

	"llmcore/internal/backend/tablelm"
	"llmcore/internal/engine"
)

// writeHelloModel writes a small deterministic table model into dir.
// Greedy decoding of "hello world" yields "!" and then end of generation.
func writeHelloModel(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "hello.tlm.yaml")
	err := tablelm.WriteFile(p, tablelm.Manifest{
		Name:          "hello",
		ContextLength: 64,
		Embedding:     true,
		BOS:           "<s>",
		EOG:           []string{"</s>"},
		Vocab:         []string{"<s>", "</s>", "hello", " world", "!"},
		Bigrams: map[string]map[string]float32{
			"<s>":    {"hello": 5},
			"hello":  {" world": 5},
			" world": {"!": 5},
			"!":      {"</s>": 5},
		},
	})
	if err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return p
}

func newTestManager(t *testing.T, mut func(*Config)) *Manager {
	t.Helper()
	dir := t.TempDir()
	writeHelloModel(t, dir)
	rt := engine.New(engine.Config{Backend: tablelm.New()})
	if err := rt.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg := Config{
		Runtime:   rt,
		ModelsDir: dir,
		Generate:  engine.GenerateOptions{MaxTokens: 10, Temperature: 0, TopK: 1, TopP: 1, Seed: 42},
	}
	if mut != nil {
		mut(&cfg)
	}
	m := New(cfg)
	if err := m.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func mustLoadHello(t *testing.T, m *Manager) engine.Handle {
	t.Helper()
	info, err := m.LoadModel(typesLoad("hello"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	h, err := engine.ParseHandle(info.Handle)
	if err != nil {
		t.Fatalf("parse handle: %v", err)
	}
	return h
}
