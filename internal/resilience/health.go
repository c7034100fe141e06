// Package resilience reports the health of the dashboard's components.
package resilience

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "HEALTHY"
	HealthStatusDegraded  HealthStatus = "DEGRADED"
	HealthStatusUnhealthy HealthStatus = "UNHEALTHY"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name      string                 `json:"name"`
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	LastCheck time.Time              `json:"last_check"`
	Latency   time.Duration          `json:"latency_ns"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthCheck represents a health check function.
type HealthCheck func(ctx context.Context) ComponentHealth

// SystemHealth represents overall system health.
type SystemHealth struct {
	Status        HealthStatus      `json:"status"`
	Uptime        string            `json:"uptime"`
	StartTime     time.Time         `json:"start_time"`
	Components    []ComponentHealth `json:"components"`
	Goroutines    int               `json:"goroutines"`
	MemoryAllocMB uint64            `json:"memory_alloc_mb"`
}

// HealthCheckerConfig holds health checker configuration.
type HealthCheckerConfig struct {
	Timeout            time.Duration
	MemoryThresholdMB  uint64
	GoroutineThreshold int
}

// DefaultHealthCheckerConfig returns default configuration.
func DefaultHealthCheckerConfig() HealthCheckerConfig {
	return HealthCheckerConfig{
		Timeout:            5 * time.Second,
		MemoryThresholdMB:  500,
		GoroutineThreshold: 1000,
	}
}

// HealthChecker runs registered checks on demand. Nothing runs in the
// background; every Check call probes the components afresh.
type HealthChecker struct {
	mu         sync.RWMutex
	cfg        HealthCheckerConfig
	startTime  time.Time
	components map[string]HealthCheck
}

// NewHealthChecker creates a health checker.
func NewHealthChecker(cfg HealthCheckerConfig) *HealthChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHealthCheckerConfig().Timeout
	}
	return &HealthChecker{
		cfg:        cfg,
		startTime:  time.Now(),
		components: make(map[string]HealthCheck),
	}
}

// Register adds a named check, replacing any check with the same name.
func (h *HealthChecker) Register(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = check
}

// Check runs every registered check concurrently plus the memory and
// goroutine checks. The overall status is the worst component status.
func (h *HealthChecker) Check(ctx context.Context) SystemHealth {
	h.mu.RLock()
	components := make(map[string]HealthCheck, len(h.components))
	for k, v := range h.components {
		components[k] = v
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()

	var wg sync.WaitGroup
	results := make(chan ComponentHealth, len(components)+2)

	for name, check := range components {
		wg.Add(1)
		go func(n string, c HealthCheck) {
			defer wg.Done()
			results <- runCheck(ctx, n, c)
		}(name, check)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		results <- h.checkMemory()
	}()
	go func() {
		defer wg.Done()
		results <- h.checkGoroutines()
	}()

	wg.Wait()
	close(results)

	health := SystemHealth{
		Status:     HealthStatusHealthy,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		StartTime:  h.startTime,
		Goroutines: runtime.NumGoroutine(),
	}
	for c := range results {
		health.Components = append(health.Components, c)
		health.Status = worse(health.Status, c.Status)
	}
	sort.Slice(health.Components, func(i, j int) bool {
		return health.Components[i].Name < health.Components[j].Name
	})

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	health.MemoryAllocMB = memStats.Alloc / 1024 / 1024

	return health
}

// runCheck runs one check, turning a panic into an unhealthy result.
func runCheck(ctx context.Context, name string, check HealthCheck) (health ComponentHealth) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			health = ComponentHealth{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("Panic recovered: %v", r),
			}
		}
		health.Name = name
		health.LastCheck = time.Now()
		health.Latency = time.Since(start)
	}()
	return check(ctx)
}

func (h *HealthChecker) checkMemory() ComponentHealth {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	allocMB := memStats.Alloc / 1024 / 1024

	health := ComponentHealth{
		Name:      "memory",
		Status:    HealthStatusHealthy,
		LastCheck: time.Now(),
		Message:   fmt.Sprintf("Memory usage: %d MB", allocMB),
		Details: map[string]interface{}{
			"alloc_mb": allocMB,
			"sys_mb":   memStats.Sys / 1024 / 1024,
			"num_gc":   memStats.NumGC,
		},
	}
	if h.cfg.MemoryThresholdMB > 0 && allocMB > h.cfg.MemoryThresholdMB {
		health.Status = HealthStatusDegraded
		health.Message = fmt.Sprintf("Memory usage high: %d MB", allocMB)
	}
	return health
}

func (h *HealthChecker) checkGoroutines() ComponentHealth {
	n := runtime.NumGoroutine()

	health := ComponentHealth{
		Name:      "goroutines",
		Status:    HealthStatusHealthy,
		LastCheck: time.Now(),
		Message:   fmt.Sprintf("Goroutine count: %d", n),
		Details:   map[string]interface{}{"count": n},
	}
	if h.cfg.GoroutineThreshold > 0 && n > h.cfg.GoroutineThreshold {
		health.Status = HealthStatusDegraded
		health.Message = fmt.Sprintf("High goroutine count: %d", n)
	}
	return health
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{
		HealthStatusHealthy:   0,
		HealthStatusDegraded:  1,
		HealthStatusUnhealthy: 2,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
