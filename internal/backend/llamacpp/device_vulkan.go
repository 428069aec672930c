//go:build vulkan && !cublas && !metal

package llamacpp

const gpuName = "vulkan"
