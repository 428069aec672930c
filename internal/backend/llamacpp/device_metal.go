//go:build metal && !cublas

package llamacpp

const gpuName = "metal"
