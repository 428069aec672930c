package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"llmcore/internal/backend/tablelm"
	"llmcore/internal/engine"
	"llmcore/internal/manager"
	"llmcore/pkg/types"
)

// blockService blocks generation until the context is done.
type blockService struct{ mockService }

func (b *blockService) Generate(ctx context.Context, _ engine.Handle, _ types.GenerateRequest) (types.GenerateResponse, error) {
	<-ctx.Done()
	return types.GenerateResponse{}, ctx.Err()
}

func TestGenerateLogsWithZerologInfo(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer func() { zlog = nil }()

	rec := post(t, NewMux(&mockService{}), "/models/h/generate?log=info", `{"prompt":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with info logging, got %d", rec.Code)
	}
	out := buf.String()
	if !strings.Contains(out, "request start") || !strings.Contains(out, `"status":200`) {
		t.Fatalf("missing request log lines: %q", out)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, []string{"GET", "POST", "OPTIONS"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(&mockService{ready: true})
	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}

func TestCORSDisabledByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected CORS header %q", got)
	}
}

func TestGenerateTimeoutReturns504(t *testing.T) {
	SetGenerateTimeout(20 * time.Millisecond)
	defer SetGenerateTimeout(0)

	rec := post(t, NewMux(&blockService{}), "/models/h/generate", `{"prompt":"x"}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 on timeout, got %d", rec.Code)
	}
}

func TestLoadModelNotFound404(t *testing.T) {
	rec := post(t, NewMux(&mockService{err: manager.ErrModelNotFound("abc")}), "/models", `{"id":"abc"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for model not found, got %d", rec.Code)
	}
}

func TestContentTypeCaseInsensitive(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/models/h/generate", bytes.NewBufferString(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	NewMux(&mockService{}).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with mixed-case content-type, got %d", rec.Code)
	}
}

func TestStreamWithDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	defer func() { zlog = nil }()
	svc := &mockService{chunks: []types.StreamChunk{{Token: 2, Text: "a"}, {Final: true, FinishReason: "stop"}}}
	rec := post(t, NewMux(svc), "/models/h/generate?log=debug", `{"prompt":"hi","stream":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with debug logging, got %d", rec.Code)
	}
	if strings.Count(buf.String(), "stream>") != 2 {
		t.Fatalf("expected both chunks logged: %q", buf.String())
	}
}

// TestEndToEndWithTableModel drives the real manager and engine through the
// HTTP surface.
func TestEndToEndWithTableModel(t *testing.T) {
	dir := t.TempDir()
	err := tablelm.WriteFile(filepath.Join(dir, "hello.tlm.json"), tablelm.Manifest{
		Name:          "hello",
		ContextLength: 64,
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
	rt := engine.New(engine.Config{Backend: tablelm.New()})
	if err := rt.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	mgr := manager.New(manager.Config{
		Runtime:   rt,
		ModelsDir: dir,
		Generate:  engine.GenerateOptions{MaxTokens: 16, TopK: 1, TopP: 1, Seed: 42},
	})
	if err := mgr.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer mgr.Close()
	srv := httptest.NewServer(NewMux(mgr))
	defer srv.Close()

	call := func(method, path, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		return resp
	}

	resp := call(http.MethodPost, "/models", `{"id":"hello"}`)
	var info types.ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("load: status=%d info=%+v err=%v", resp.StatusCode, info, err)
	}
	resp.Body.Close()

	resp = call(http.MethodPost, "/models/hello/generate", `{"prompt":"hello world","temperature":0}`)
	var gen types.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil || gen.Text != "!" || gen.FinishReason != "stop" {
		t.Fatalf("generate: status=%d res=%+v err=%v", resp.StatusCode, gen, err)
	}
	resp.Body.Close()

	resp = call(http.MethodPost, "/models/"+info.Handle+"/generate", `{"tokens":[0,2,3],"temperature":0,"stream":true}`)
	var chunks []types.StreamChunk
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var c types.StreamChunk
		if err := json.Unmarshal(sc.Bytes(), &c); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		chunks = append(chunks, c)
	}
	resp.Body.Close()
	if len(chunks) != 2 || chunks[0].Text != "!" || !chunks[1].Final || chunks[1].FinishReason != "stop" {
		t.Fatalf("unexpected stream: %+v", chunks)
	}

	resp = call(http.MethodDelete, "/models/"+info.Handle, "")
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unload status=%d", resp.StatusCode)
	}
	resp = call(http.MethodGet, "/models/"+info.Handle, "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after unload, got %d", resp.StatusCode)
	}
}
