package types

// Model represents a model file discovered in the models directory.
type Model struct {
	// Stable identifier for the model (file name without extension).
	// example: tinyllama-q4
	ID string `json:"id" example:"tinyllama-q4"`
	// Human-friendly name.
	// example: tinyllama-q4
	Name string `json:"name" example:"tinyllama-q4"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/tinyllama-q4.gguf
	Path string `json:"path" example:"/home/user/models/tinyllama-q4.gguf"`
	// File size in bytes.
	// example: 668788096
	SizeBytes int64 `json:"size_bytes" example:"668788096"`
}

// ModelInfo describes a loaded model handle.
type ModelInfo struct {
	// Opaque handle used in /models/{handle} routes.
	// example: 0x100000001
	Handle            string `json:"handle" example:"0x100000001"`
	Path              string `json:"path"`
	Name              string `json:"name"`
	Architecture      string `json:"architecture"`
	Quantization      string `json:"quantization"`
	ContextSize       int    `json:"context_size"`
	TrainContextSize  int    `json:"train_context_size"`
	VocabSize         int    `json:"vocab_size"`
	EmbeddingSize     int    `json:"embedding_size"`
	LayerCount        int    `json:"layer_count"`
	HeadCount         int    `json:"head_count"`
	ParameterCount    int64  `json:"parameter_count"`
	FileSizeBytes     int64  `json:"file_size_bytes"`
	Threads           int    `json:"threads"`
	BatchSize         int    `json:"batch_size"`
	GPULayers         int    `json:"gpu_layers"`
	SupportsEmbedding bool   `json:"supports_embedding"`
	SupportsVision    bool   `json:"supports_vision"`
	ChatTemplate      string `json:"chat_template,omitempty"`
}

// SystemInfo reports backend and host capabilities.
type SystemInfo struct {
	Version        string   `json:"version"`
	Backend        string   `json:"backend"`
	BackendVersion string   `json:"backend_version"`
	GPU            bool     `json:"gpu"`
	GPUBackend     string   `json:"gpu_backend"`
	VRAMBytes      int64    `json:"vram_bytes"`
	CPUBrand       string   `json:"cpu_brand"`
	PhysicalCores  int      `json:"physical_cores"`
	LogicalCores   int      `json:"logical_cores"`
	DefaultThreads int      `json:"default_threads"`
	CPUFeatures    []string `json:"cpu_features,omitempty"`
}
