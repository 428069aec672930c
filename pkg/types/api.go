package types

// ModelsResponse is returned by GET /models.
type ModelsResponse struct {
	// Model files found in the models directory.
	Available []Model `json:"available"`
	// Currently loaded handles.
	Loaded []ModelInfo `json:"loaded"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// LoadRequest is the body of POST /models. Exactly one of ID or Path is set.
type LoadRequest struct {
	// Model id from GET /models.
	// example: tinyllama-q4
	ID string `json:"id,omitempty" example:"tinyllama-q4"`
	// Explicit path to a model file.
	Path string `json:"path,omitempty"`
	// Context window; 0 selects the trained maximum.
	// example: 2048
	ContextSize int `json:"context_size,omitempty" example:"2048"`
	// Layers to offload; omitted or negative offloads all.
	GPULayers *int `json:"gpu_layers,omitempty"`
	// Inference threads; 0 derives from the core count.
	Threads int `json:"threads,omitempty"`
	// Decode batch size; 0 selects 512.
	BatchSize int `json:"batch_size,omitempty"`
	// Memory-map the model file.
	UseMmap *bool `json:"use_mmap,omitempty"`
}

// TokenizeRequest is the body of POST /models/{handle}/tokenize.
type TokenizeRequest struct {
	// example: hello world
	Text string `json:"text" example:"hello world"`
	// Prepend BOS and other special tokens.
	AddSpecial bool `json:"add_special,omitempty"`
}

// TokenizeResponse carries token ids.
type TokenizeResponse struct {
	Tokens []int32 `json:"tokens"`
}

// DetokenizeRequest is the body of POST /models/{handle}/detokenize.
type DetokenizeRequest struct {
	Tokens []int32 `json:"tokens"`
}

// DetokenizeResponse carries rendered text.
type DetokenizeResponse struct {
	Text string `json:"text"`
}

// GenerateRequest is the body of POST /models/{handle}/generate. The prompt is
// either raw text (tokenized with special tokens unless AddSpecial is false)
// or pre-tokenized ids. Sampling fields left out take the server defaults.
type GenerateRequest struct {
	// example: Once upon a time
	Prompt string `json:"prompt,omitempty" example:"Once upon a time"`
	// Pre-tokenized prompt; takes precedence over Prompt.
	Tokens []int32 `json:"tokens,omitempty"`
	// Defaults to true for text prompts.
	AddSpecial *bool `json:"add_special,omitempty"`
	// If true, stream results as NDJSON chunks.
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens *int `json:"max_tokens,omitempty" example:"128"`
	// example: 0.7
	Temperature *float32 `json:"temperature,omitempty" example:"0.7"`
	// example: 0.9
	TopP *float32 `json:"top_p,omitempty" example:"0.9"`
	// example: 40
	TopK *int `json:"top_k,omitempty" example:"40"`
	// example: 0.05
	MinP *float32 `json:"min_p,omitempty" example:"0.05"`
	// example: 1.1
	RepetitionPenalty *float32 `json:"repetition_penalty,omitempty" example:"1.1"`
	// Random seed; negative or omitted picks a random one.
	// example: 42
	Seed *int64 `json:"seed,omitempty" example:"42"`
}

// GenerateResponse is returned by non-streaming generate calls.
type GenerateResponse struct {
	Tokens []int32 `json:"tokens"`
	Text   string  `json:"text"`
	// One of stop, length or error.
	// example: stop
	FinishReason string `json:"finish_reason" example:"stop"`
	PromptTokens int    `json:"prompt_tokens"`
}

// StreamChunk is one NDJSON line of a streaming generate response.
type StreamChunk struct {
	Token        int32  `json:"token"`
	Text         string `json:"text"`
	Final        bool   `json:"final"`
	FinishReason string `json:"finish_reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// EmbedRequest is the body of POST /models/{handle}/embed.
type EmbedRequest struct {
	Text   string  `json:"text,omitempty"`
	Tokens []int32 `json:"tokens,omitempty"`
	// Scale to unit L2 norm; defaults to true.
	Normalize *bool `json:"normalize,omitempty"`
}

// EmbedResponse carries the embedding vector.
type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}
