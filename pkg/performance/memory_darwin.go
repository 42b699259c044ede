//go:build darwin

package performance

import (
	"runtime"
	"time"
)

// GetSystemMemory approximates memory on macOS from the Go runtime, against
// an assumed 2GB board. Only used for development runs.
func GetSystemMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	const totalMB = uint64(2048)
	usedMB := m.Sys / (1024 * 1024)
	if usedMB > totalMB {
		usedMB = totalMB
	}

	return MemorySnapshot{
		Timestamp:   time.Now(),
		TotalMB:     totalMB,
		AvailableMB: totalMB - usedMB,
		UsedMB:      usedMB,
		FreeMB:      totalMB - usedMB,
	}
}
