package engine

import (
	"github.com/klauspost/cpuid/v2"
)

// SystemInfo describes the host and the backend build.
type SystemInfo struct {
	Version        string
	Backend        string
	BackendVersion string
	GPU            bool
	GPUBackend     string // metal, cuda, vulkan or cpu
	VRAMBytes      int64  // 0 when unknown
	CPUBrand       string
	PhysicalCores  int
	LogicalCores   int
	DefaultThreads int
	CPUFeatures    []string
}

// HasGPUSupport reports whether the backend dispatches to a GPU.
func (r *Runtime) HasGPUSupport() bool { return r.be.Device().GPU }

// GPUBackendName returns metal, cuda, vulkan or cpu.
func (r *Runtime) GPUBackendName() string {
	if n := r.be.Device().Name; n != "" {
		return n
	}
	return "cpu"
}

// VRAMSize returns the device memory in bytes, or 0 when unknown.
func (r *Runtime) VRAMSize() int64 { return r.be.Device().VRAMBytes }

// System collects backend and CPU details. It does not require Init.
func (r *Runtime) System() SystemInfo {
	return SystemInfo{
		Version:        Version,
		Backend:        r.be.Name(),
		BackendVersion: r.be.Version(),
		GPU:            r.HasGPUSupport(),
		GPUBackend:     r.GPUBackendName(),
		VRAMBytes:      r.VRAMSize(),
		CPUBrand:       cpuid.CPU.BrandName,
		PhysicalCores:  cpuid.CPU.PhysicalCores,
		LogicalCores:   logicalCores(),
		DefaultThreads: DefaultThreads(),
		CPUFeatures:    cpuid.CPU.FeatureSet(),
	}
}
