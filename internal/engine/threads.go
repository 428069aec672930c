package engine

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultThreads derives a thread count from the logical core count, leaving
// headroom for the rest of the process on larger machines.
func DefaultThreads() int {
	return threadsFor(logicalCores())
}

func logicalCores() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func threadsFor(cores int) int {
	switch {
	case cores <= 2:
		return 1
	case cores <= 4:
		return cores - 1
	default:
		return cores - 2
	}
}
