package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func componentByName(t *testing.T, h SystemHealth, name string) ComponentHealth {
	t.Helper()
	for _, c := range h.Components {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("component %q not reported", name)
	return ComponentHealth{}
}

func TestHealthChecker_Healthy(t *testing.T) {
	h := NewHealthChecker(DefaultHealthCheckerConfig())
	h.Register("provider", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: HealthStatusHealthy, Message: "ok"}
	})

	health := h.Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, health.Status)
	require.Len(t, health.Components, 3)

	p := componentByName(t, health, "provider")
	assert.Equal(t, "ok", p.Message)
	assert.False(t, p.LastCheck.IsZero())
}

func TestHealthChecker_WorstStatusWins(t *testing.T) {
	h := NewHealthChecker(DefaultHealthCheckerConfig())
	h.Register("a", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: HealthStatusDegraded}
	})
	assert.Equal(t, HealthStatusDegraded, h.Check(context.Background()).Status)

	h.Register("b", func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Status: HealthStatusUnhealthy}
	})
	assert.Equal(t, HealthStatusUnhealthy, h.Check(context.Background()).Status)
}

func TestHealthChecker_RecoversPanic(t *testing.T) {
	h := NewHealthChecker(DefaultHealthCheckerConfig())
	h.Register("broken", func(ctx context.Context) ComponentHealth {
		panic("boom")
	})

	health := h.Check(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, health.Status)

	c := componentByName(t, health, "broken")
	assert.Equal(t, "Panic recovered: boom", c.Message)
}

func TestHealthChecker_Timeout(t *testing.T) {
	h := NewHealthChecker(HealthCheckerConfig{Timeout: 20 * time.Millisecond})
	h.Register("slow", func(ctx context.Context) ComponentHealth {
		<-ctx.Done()
		return ComponentHealth{Status: HealthStatusUnhealthy, Message: ctx.Err().Error()}
	})

	health := h.Check(context.Background())
	c := componentByName(t, health, "slow")
	assert.Equal(t, context.DeadlineExceeded.Error(), c.Message)
}

func TestHealthChecker_Thresholds(t *testing.T) {
	h := NewHealthChecker(HealthCheckerConfig{GoroutineThreshold: 1})
	health := h.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, componentByName(t, health, "goroutines").Status)
	assert.Equal(t, HealthStatusDegraded, health.Status)
}
