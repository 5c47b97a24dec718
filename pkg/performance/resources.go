// Package performance samples process resource usage while pools are under
// load.
package performance

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
)

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	CPUPercent            float64 `json:"cpu_percent"`
	SystemCPUPercent      float64 `json:"system_cpu_percent"`
	MemoryRSS             uint64  `json:"memory_rss"`
	MemoryVMS             uint64  `json:"memory_vms"`
	PeakRSS               uint64  `json:"peak_rss"`
	HeapAlloc             uint64  `json:"heap_alloc"`
	SystemMemoryPercent   float64 `json:"system_memory_percent"`
	SystemMemoryAvailable uint64  `json:"system_memory_available"`
	GoroutineCount        int     `json:"goroutines"`
	ThreadCount           int32   `json:"threads"`
	GCCount               uint32  `json:"gc_count"`
}

// ResourceMonitor monitors the resources of the current process.
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	startGC      uint32

	mu      sync.Mutex
	peakRSS uint64
}

// NewResourceMonitor creates a resource monitor for the current process.
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeInternal, "failed to open current process")
	}

	rm := &ResourceMonitor{
		process:   proc,
		startTime: time.Now(),
	}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	rm.startGC = memStats.NumGC

	// Prime cpu.Percent so the next zero-interval call measures from here
	_, _ = cpu.Percent(0, false)

	return rm, nil
}

// Usage returns current resource usage. Individual probes that are not
// supported on the platform are left zero.
func (rm *ResourceMonitor) Usage() (*ResourceUsage, error) {
	usage := &ResourceUsage{}

	if cpuTime, err := rm.process.Times(); err == nil {
		if elapsed := time.Since(rm.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / elapsed) * 100
		}
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		usage.SystemCPUPercent = pct[0]
	}

	memInfo, err := rm.process.MemoryInfo()
	if err != nil {
		return nil, poolerrors.Wrap(err, poolerrors.ErrorTypeInternal, "failed to read process memory")
	}
	usage.MemoryRSS = memInfo.RSS
	usage.MemoryVMS = memInfo.VMS
	usage.PeakRSS = rm.observe(memInfo.RSS)

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	usage.HeapAlloc = memStats.HeapAlloc
	usage.GCCount = memStats.NumGC - rm.startGC

	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = rm.process.NumThreads()

	return usage, nil
}

// Sample records resident memory every interval until ctx is done, keeping
// the peak for PeakRSS.
func (rm *ResourceMonitor) Sample(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if memInfo, err := rm.process.MemoryInfo(); err == nil {
			rm.observe(memInfo.RSS)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PeakRSS returns the largest resident set size observed so far.
func (rm *ResourceMonitor) PeakRSS() uint64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.peakRSS
}

func (rm *ResourceMonitor) observe(rss uint64) uint64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rss > rm.peakRSS {
		rm.peakRSS = rss
	}
	return rm.peakRSS
}
