package types

import "testing"

func ptr[T any](v T) *T { return &v }

func TestLoadRequestValidate(t *testing.T) {
	if err := (LoadRequest{}).Validate(); err == nil {
		t.Fatalf("expected error when neither id nor path is set")
	}
	if err := (LoadRequest{ID: "a", Path: "/b"}).Validate(); err == nil {
		t.Fatalf("expected error when both id and path are set")
	}
	if err := (LoadRequest{ID: "a", ContextSize: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative context size")
	}
	if err := (LoadRequest{Path: "/m.gguf", GPULayers: ptr(-1)}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateRequestValidate(t *testing.T) {
	if err := (GenerateRequest{}).Validate(); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
	ok := GenerateRequest{Prompt: "hi", Temperature: ptr(float32(0)), TopP: ptr(float32(1)), MaxTokens: ptr(16)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []GenerateRequest{
		{Prompt: "hi", Temperature: ptr(float32(3))},
		{Prompt: "hi", TopP: ptr(float32(1.5))},
		{Prompt: "hi", MinP: ptr(float32(-0.1))},
		{Prompt: "hi", TopK: ptr(-1)},
		{Prompt: "hi", MaxTokens: ptr(-5)},
		{Tokens: []int32{1, -2}},
	}
	for i, r := range bad {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestTokenizeAndEmbedValidate(t *testing.T) {
	if err := (TokenizeRequest{}).Validate(); err == nil {
		t.Fatalf("expected error for empty text")
	}
	if err := (DetokenizeRequest{}).Validate(); err == nil {
		t.Fatalf("expected error for empty tokens")
	}
	if err := (EmbedRequest{}).Validate(); err == nil {
		t.Fatalf("expected error for empty embed request")
	}
	if err := (EmbedRequest{Tokens: []int32{3}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
