//go:build !cublas && !metal && !vulkan

package llamacpp

const gpuName = "cpu"
