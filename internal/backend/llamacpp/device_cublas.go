//go:build cublas

package llamacpp

// Selected by building go-llama.cpp with BUILD_TYPE=cublas and -tags cublas.
const gpuName = "cuda"
