package e2e

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"llmcore/internal/backend/tablelm"
	"llmcore/internal/manager"
	"llmcore/pkg/types"
)

func TestE2E_ModelLifecycle(t *testing.T) {
	dir := createModelsDir(t, map[string]tablelm.Manifest{
		"alpha.tlm.yaml": helloManifest("alpha", true),
		"beta.tlm.json":  helloManifest("beta", false),
	})
	srv, _ := newServerForDir(t, dir, nil)

	// 1) Both manifests are discovered, nothing is loaded yet.
	resp, body := httpGet(t, srv.URL+"/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/models status=%d body=%s", resp.StatusCode, body)
	}
	list := decode[types.ModelsResponse](t, body)
	if len(list.Available) != 2 || len(list.Loaded) != 0 {
		t.Fatalf("unexpected listing: %+v", list)
	}

	// 2) The runtime is initialized, so the service is ready without a model.
	if resp, _ := httpGet(t, srv.URL+"/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz = %d", resp.StatusCode)
	}

	// 3) Load by registry id and drive every operation through the handle.
	h := loadModel(t, srv.URL, `{"id":"alpha","context_size":32}`)

	resp, body = httpPostJSON(t, srv.URL+"/models/"+h+"/tokenize", `{"text":"hello world","add_special":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tokenize status=%d body=%s", resp.StatusCode, body)
	}
	if diff := cmp.Diff([]int32{0, 2, 3}, decode[types.TokenizeResponse](t, body).Tokens); diff != "" {
		t.Fatalf("tokens (-want +got):\n%s", diff)
	}

	resp, body = httpPostJSON(t, srv.URL+"/models/"+h+"/generate", `{"prompt":"hello world","temperature":0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status=%d body=%s", resp.StatusCode, body)
	}
	gen := decode[types.GenerateResponse](t, body)
	if gen.Text != "!" || gen.FinishReason != "stop" || gen.PromptTokens != 3 {
		t.Fatalf("generate = %+v", gen)
	}

	resp, body = httpPostJSON(t, srv.URL+"/models/"+h+"/generate", `{"prompt":"hello world","temperature":0,"stream":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status=%d body=%s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-ndjson") {
		t.Fatalf("stream content type %q", ct)
	}
	chunks := ndjson(t, body)
	if len(chunks) != 2 || chunks[0].Text != "!" || !chunks[1].Final || chunks[1].FinishReason != "stop" {
		t.Fatalf("stream chunks = %+v", chunks)
	}

	resp, body = httpPostJSON(t, srv.URL+"/models/"+h+"/embed", `{"text":"hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("embed status=%d body=%s", resp.StatusCode, body)
	}
	if emb := decode[types.EmbedResponse](t, body); emb.Dimension == 0 || emb.Dimension != len(emb.Embedding) {
		t.Fatalf("embed = %+v", emb)
	}

	resp, body = httpGet(t, srv.URL+"/models/"+h)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("info status=%d body=%s", resp.StatusCode, body)
	}
	if info := decode[types.ModelInfo](t, body); info.ContextSize != 32 || info.TrainContextSize != 64 {
		t.Fatalf("info = %+v", info)
	}

	// 4) Unloading invalidates the handle for good.
	if resp, body := do(t, http.MethodDelete, srv.URL+"/models/"+h, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unload status=%d body=%s", resp.StatusCode, body)
	}
	if resp, _ := httpGet(t, srv.URL+"/models/"+h); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stale handle = %d, want 404", resp.StatusCode)
	}
	h2 := loadModel(t, srv.URL, `{"id":"alpha"}`)
	if h2 == h {
		t.Fatalf("reload reused handle %s", h)
	}
	if resp, _ := httpGet(t, srv.URL+"/models/"+h); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stale handle after reload = %d, want 404", resp.StatusCode)
	}
}

func TestE2E_ErrorStatuses(t *testing.T) {
	dir := createModelsDir(t, map[string]tablelm.Manifest{
		"plain.tlm.yaml": helloManifest("plain", false),
	})
	writeRaw(t, dir, "broken.tlm.yaml", "vocab: [unterminated\n")
	srv, _ := newServerForDir(t, dir, nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown model id", http.MethodPost, "/models", `{"id":"nope"}`, http.StatusNotFound},
		{"broken manifest", http.MethodPost, "/models", `{"id":"broken"}`, http.StatusUnprocessableEntity},
		{"id and path", http.MethodPost, "/models", `{"id":"a","path":"/b"}`, http.StatusBadRequest},
		{"malformed handle", http.MethodGet, "/models/0xzz", "", http.StatusNotFound},
		{"never issued handle", http.MethodGet, "/models/0x700000001", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var payload []byte
			if tc.body != "" {
				payload = []byte(tc.body)
			}
			resp, body := do(t, tc.method, srv.URL+tc.path, payload)
			if resp.StatusCode != tc.want {
				t.Fatalf("status=%d want %d body=%s", resp.StatusCode, tc.want, body)
			}
			if e := decode[types.ErrorResponse](t, body); e.Error == "" || e.Code != tc.want {
				t.Fatalf("error body = %+v", e)
			}
		})
	}

	// A model without an embedding path reports the missing capability.
	h := loadModel(t, srv.URL, `{"id":"plain"}`)
	resp, body := httpPostJSON(t, srv.URL+"/models/"+h+"/embed", `{"text":"hello"}`)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("embed without support = %d body=%s", resp.StatusCode, body)
	}
}

func TestE2E_DefaultModelAndConcurrentGenerate(t *testing.T) {
	dir := createModelsDir(t, map[string]tablelm.Manifest{
		"alpha.tlm.yaml": helloManifest("alpha", false),
		"beta.tlm.toml":  helloManifest("beta", false),
	})
	srv, mgr := newServerForDir(t, dir, func(c *manager.Config) {
		c.DefaultModel = "alpha"
	})
	def, err := mgr.EnsureDefault()
	if err != nil {
		t.Fatalf("ensure default: %v", err)
	}
	other := loadModel(t, srv.URL, `{"id":"beta"}`)

	// Requests address models by handle or by loaded model name; each
	// handle serializes its own generations.
	refs := []string{def.Handle, other, "alpha", "beta"}
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		ref := refs[i%len(refs)]
		g.Go(func() error {
			resp, err := http.Post(srv.URL+"/models/"+ref+"/generate", "application/json",
				strings.NewReader(`{"prompt":"hello world","temperature":0}`))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			var gen types.GenerateResponse
			if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
				return fmt.Errorf("%s: status=%d: %w", ref, resp.StatusCode, err)
			}
			if resp.StatusCode != http.StatusOK || gen.Text != "!" {
				return fmt.Errorf("%s: status=%d text %q", ref, resp.StatusCode, gen.Text)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	_, body := httpGet(t, srv.URL+"/models")
	if got := len(decode[types.ModelsResponse](t, body).Loaded); got != 2 {
		t.Fatalf("loaded = %d, want 2", got)
	}
}
