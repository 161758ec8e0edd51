package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"
)

func TestGuard_TryAcquire(t *testing.T) {
	g := NewGuard(testclock.NewFakeClock(time.Now()))

	lease, ok := g.TryAcquire("Luna_1")
	require.True(t, ok)
	assert.Equal(t, "Luna_1", lease.ItemID)
	assert.True(t, g.Held("Luna_1"))

	_, ok = g.TryAcquire("Luna_1")
	assert.False(t, ok)
	assert.Equal(t, 1, g.Len())

	_, ok = g.TryAcquire("Max_2")
	assert.True(t, ok)
	assert.Equal(t, 2, g.Len())
}

func TestGuard_ReleaseAfter(t *testing.T) {
	clk := testclock.NewFakeClock(time.Now())
	g := NewGuard(clk)

	lease, ok := g.TryAcquire("Luna_1")
	require.True(t, ok)
	g.ReleaseAfter(lease, CooldownWindow)

	clk.Step(CooldownWindow - time.Millisecond)
	assert.True(t, g.Held("Luna_1"))

	clk.Step(time.Millisecond)
	assert.False(t, g.Held("Luna_1"))
}

func TestGuard_ReleaseAfter_ImmediateWhenNonPositive(t *testing.T) {
	g := NewGuard(testclock.NewFakeClock(time.Now()))
	lease, _ := g.TryAcquire("Luna_1")

	g.ReleaseAfter(lease, 0)

	assert.False(t, g.Held("Luna_1"))
}

func TestGuard_StaleReleaseKeepsNewerLease(t *testing.T) {
	clk := testclock.NewFakeClock(time.Now())
	g := NewGuard(clk)

	first, _ := g.TryAcquire("Luna_1")
	g.ReleaseAfter(first, time.Second)
	g.ReleaseAfter(first, 2*time.Second)

	clk.Step(time.Second)
	require.False(t, g.Held("Luna_1"))

	second, ok := g.TryAcquire("Luna_1")
	require.True(t, ok)

	clk.Step(time.Second)
	assert.True(t, g.Held("Luna_1"), "stale timer must not release the newer lease")

	g.ReleaseAfter(second, time.Second)
	clk.Step(time.Second)
	assert.False(t, g.Held("Luna_1"))
}
