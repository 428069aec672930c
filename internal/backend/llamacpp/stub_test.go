//go:build !llama

package llamacpp

import (
	"testing"

	"llmcore/internal/backend"
)

func TestStubLoadReportsDependencyUnavailable(t *testing.T) {
	b := New(0)
	_, err := b.Load("model.gguf", backend.LoadParams{})
	if !backend.IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if b.Version() != "unavailable" {
		t.Fatalf("version = %q", b.Version())
	}
	if Built {
		t.Fatalf("stub must report Built=false")
	}
}

func TestDeviceMatchesBuild(t *testing.T) {
	d := New(0).Device()
	if d.Name != gpuName || d.GPU != (gpuName != "cpu") {
		t.Fatalf("device = %+v", d)
	}
}
