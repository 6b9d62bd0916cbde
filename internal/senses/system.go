package senses

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/vthunder/cube/internal/types"
)

// SystemSense samples the controller's own CPU and memory use so the
// status report shows whether the board is keeping up.
type SystemSense struct {
	mu   sync.Mutex
	proc *process.Process
}

// NewSystemSense attaches to the current process
func NewSystemSense() (*SystemSense, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to attach to own process: %w", err)
	}
	return &SystemSense{proc: proc}, nil
}

// Sample reads CPU percent and resident memory
func (s *SystemSense) Sample() (types.SystemStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpu, err := s.proc.CPUPercent()
	if err != nil {
		return types.SystemStats{}, fmt.Errorf("cpu percent: %w", err)
	}
	mem, err := s.proc.MemoryInfo()
	if err != nil {
		return types.SystemStats{}, fmt.Errorf("memory info: %w", err)
	}

	return types.SystemStats{
		CPUPercent: cpu,
		RSSBytes:   mem.RSS,
		SampledAt:  types.FormatTime(time.Now()),
	}, nil
}
