package metrics

import (
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// procStats abstracts process resource sampling for testing.
type procStats interface {
	cpuPercent() (float64, error)
	memoryMB() (float64, error)
}

// processStats samples the current process via gopsutil.
type processStats struct {
	proc *process.Process
}

func newProcessStats() *processStats {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// Self-lookup only fails in exotic environments; samples will
		// error individually and be skipped.
		return &processStats{}
	}
	return &processStats{proc: proc}
}

func (p *processStats) cpuPercent() (float64, error) {
	if p.proc == nil {
		return 0, process.ErrorProcessNotRunning
	}
	// Percent(0) measures usage since the previous call, matching the
	// fixed sampling cadence.
	return p.proc.Percent(0)
}

func (p *processStats) memoryMB() (float64, error) {
	if p.proc == nil {
		return 0, process.ErrorProcessNotRunning
	}
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / 1024 / 1024, nil
}
