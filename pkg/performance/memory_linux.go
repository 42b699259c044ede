//go:build linux

package performance

import (
	"syscall"
	"time"

	"vj-frame/pkg/logging"
)

// GetSystemMemory reads system-wide memory through sysinfo(2).
func GetSystemMemory() MemorySnapshot {
	var info syscall.Sysinfo_t
	if err := syscall.Sysinfo(&info); err != nil {
		logging.Warn().Err(err).Msg("sysinfo failed")
		return MemorySnapshot{Timestamp: time.Now()}
	}

	unit := uint64(info.Unit)
	totalMB := (uint64(info.Totalram) * unit) / (1024 * 1024)
	freeMB := (uint64(info.Freeram) * unit) / (1024 * 1024)
	bufferMB := (uint64(info.Bufferram) * unit) / (1024 * 1024)

	// Linux can reclaim buffers, so count them as available.
	availableMB := freeMB + bufferMB

	return MemorySnapshot{
		Timestamp:   time.Now(),
		TotalMB:     totalMB,
		AvailableMB: availableMB,
		UsedMB:      totalMB - availableMB,
		FreeMB:      freeMB,
	}
}
