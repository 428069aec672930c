package e2e

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"llmcore/internal/backend/tablelm"
	"llmcore/internal/engine"
	"llmcore/internal/httpapi"
	"llmcore/internal/manager"
	"llmcore/pkg/types"
)

// helloManifest greedily continues "hello world" with "!" and then stops.
func helloManifest(name string, embedding bool) tablelm.Manifest {
	return tablelm.Manifest{
		Name:          name,
		ContextLength: 64,
		Embedding:     embedding,
		BOS:           "<s>",
		EOG:           []string{"</s>"},
		Vocab:         []string{"<s>", "</s>", "hello", " world", "!"},
		Bigrams: map[string]map[string]float32{
			"<s>":    {"hello": 5},
			"hello":  {" world": 5},
			" world": {"!": 5},
			"!":      {"</s>": 5},
		},
	}
}

// createModelsDir writes each manifest under dir as <file name>.
func createModelsDir(t *testing.T, models map[string]tablelm.Manifest) string {
	t.Helper()
	dir := t.TempDir()
	for file, m := range models {
		if err := tablelm.WriteFile(filepath.Join(dir, file), m); err != nil {
			t.Fatalf("write model %s: %v", file, err)
		}
	}
	return dir
}

func writeRaw(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newServerForDir(t *testing.T, modelsDir string, mut func(*manager.Config)) (*httptest.Server, *manager.Manager) {
	t.Helper()
	rt := engine.New(engine.Config{Backend: tablelm.New()})
	if err := rt.Init(); err != nil {
		t.Fatalf("init runtime: %v", err)
	}
	cfg := manager.Config{
		Runtime:   rt,
		ModelsDir: modelsDir,
		Generate:  engine.GenerateOptions{MaxTokens: 16, TopK: 1, TopP: 1, Seed: 7},
	}
	if mut != nil {
		mut(&cfg)
	}
	mgr := manager.New(cfg)
	if err := mgr.Refresh(); err != nil {
		t.Fatalf("scan models: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

func do(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	return do(t, http.MethodGet, url, nil)
}

func httpPostJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	return do(t, http.MethodPost, url, []byte(payload))
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %T: %v body=%s", v, err, body)
	}
	return v
}

// loadModel posts a load request and returns the new handle string.
func loadModel(t *testing.T, srvURL, payload string) string {
	t.Helper()
	resp, body := httpPostJSON(t, srvURL+"/models", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("load %s: status=%d body=%s", payload, resp.StatusCode, body)
	}
	return decode[types.ModelInfo](t, body).Handle
}

func ndjson(t *testing.T, body []byte) []types.StreamChunk {
	t.Helper()
	var out []types.StreamChunk
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		out = append(out, decode[types.StreamChunk](t, sc.Bytes()))
	}
	return out
}
