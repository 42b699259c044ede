// Package performance watches frame timing and memory on small boards.
package performance

import (
	"runtime"
	"runtime/debug"
	"time"

	"vj-frame/pkg/logging"
)

// MemorySnapshot represents memory state at a point in time
type MemorySnapshot struct {
	Timestamp   time.Time
	TotalMB     uint64 // Total system memory
	AvailableMB uint64 // Available memory for use
	UsedMB      uint64 // Currently used memory
	FreeMB      uint64 // Free memory (not including buffers/cache)
}

// GoMemoryStats holds Go runtime memory statistics
type GoMemoryStats struct {
	AllocMB      uint64 // Currently allocated heap memory
	TotalAllocMB uint64 // Cumulative allocated memory
	SysMB        uint64 // Memory obtained from system
	NumGC        uint32 // Number of GC runs
}

// GetGoMemory retrieves Go runtime memory statistics
func GetGoMemory() GoMemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return GoMemoryStats{
		AllocMB:      m.Alloc / (1024 * 1024),
		TotalAllocMB: m.TotalAlloc / (1024 * 1024),
		SysMB:        m.Sys / (1024 * 1024),
		NumGC:        m.NumGC,
	}
}

// MemoryPressureLevel represents how much memory pressure the system is under
type MemoryPressureLevel int

const (
	MemoryPressureNone     MemoryPressureLevel = iota // >800MB available
	MemoryPressureLow                                 // 400-800MB available
	MemoryPressureMedium                              // 200-400MB available
	MemoryPressureHigh                                // 100-200MB available
	MemoryPressureCritical                            // <100MB available
)

// PressureFor classifies an amount of available memory.
func PressureFor(availableMB uint64) MemoryPressureLevel {
	switch {
	case availableMB < 100:
		return MemoryPressureCritical
	case availableMB < 200:
		return MemoryPressureHigh
	case availableMB < 400:
		return MemoryPressureMedium
	case availableMB < 800:
		return MemoryPressureLow
	default:
		return MemoryPressureNone
	}
}

// GetMemoryPressure returns the current memory pressure level
func GetMemoryPressure() MemoryPressureLevel {
	return PressureFor(GetSystemMemory().AvailableMB)
}

func (m MemoryPressureLevel) String() string {
	switch m {
	case MemoryPressureNone:
		return "none"
	case MemoryPressureLow:
		return "low"
	case MemoryPressureMedium:
		return "medium"
	case MemoryPressureHigh:
		return "high"
	case MemoryPressureCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ReclaimIfPressured returns freed heap to the OS when the system is at high
// pressure or worse. Called between entries, when the previous decoder has
// just been released.
func ReclaimIfPressured() MemoryPressureLevel {
	pressure := GetMemoryPressure()
	if pressure >= MemoryPressureHigh {
		debug.FreeOSMemory()
		logging.Warn().Str("pressure", pressure.String()).Msg("memory pressure: released heap to the OS")
	}
	return pressure
}

// LogMemorySnapshot logs a detailed memory snapshot
func LogMemorySnapshot() {
	sys := GetSystemMemory()
	goMem := GetGoMemory()

	logging.Info().
		Uint64("total_mb", sys.TotalMB).
		Uint64("available_mb", sys.AvailableMB).
		Uint64("used_mb", sys.UsedMB).
		Uint64("go_alloc_mb", goMem.AllocMB).
		Uint64("go_sys_mb", goMem.SysMB).
		Uint32("gc", goMem.NumGC).
		Str("pressure", PressureFor(sys.AvailableMB).String()).
		Msg("memory snapshot")
}
