package mrs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mrs1000/internal/colaa"
)

const testBeams = 6

func feedCycle(a *CloudAssembler, stamp time.Time) {
	for _, layer := range []colaa.LayerAngle{colaa.Layer2, colaa.Layer3, colaa.Layer1, colaa.Layer4} {
		a.Observe(testUnit(layer, testBeams), stamp)
	}
}

func TestAssemblerPublishesCompleteCycle(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	feedCycle(a, stamp)

	require.Len(t, pub.clouds, 1)
	cloud := pub.clouds[0]
	assert.Equal(t, "laser", cloud.FrameID)
	assert.Equal(t, stamp, cloud.Stamp)
	assert.NotEmpty(t, cloud.CycleID)
	assert.Equal(t, LayerCount, cloud.Height)
	assert.Equal(t, testBeams, cloud.Width)
	assert.False(t, cloud.Dense)
	assert.False(t, cloud.BigEndian)
	require.Len(t, cloud.X, LayerCount*testBeams)

	// Every point carries a valid cartesian position at 1 m range.
	for i := range cloud.X {
		r := math.Sqrt(float64(cloud.X[i]*cloud.X[i] + cloud.Y[i]*cloud.Y[i] + cloud.Z[i]*cloud.Z[i]))
		assert.InDelta(t, 1.0, r, 1e-5, "point %d", i)
		assert.Equal(t, float32(100), cloud.Intensity[i], "point %d", i)
	}
}

func TestAssemblerElevationSeparatesLayers(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)

	feedCycle(a, time.Now())

	require.Len(t, pub.clouds, 1)
	cloud := pub.clouds[0]
	// Slot 0 is the 0 deg plane, slot 3 the -5 deg plane.
	assert.InDelta(t, 0, float64(cloud.Z[0]), 1e-6)
	z3 := float64(cloud.Z[3*testBeams])
	assert.InDelta(t, math.Sin(-5.0*math.Pi/180), z3, 1e-5)
}

func TestAssemblerDiscardsUnitsBeforeFirstStart(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)

	// A tail of a cycle without its start marker must never publish.
	a.Observe(testUnit(colaa.Layer3, testBeams), time.Now())
	a.Observe(testUnit(colaa.Layer1, testBeams), time.Now())
	a.Observe(testUnit(colaa.Layer4, testBeams), time.Now())

	assert.Empty(t, pub.clouds)
	assert.False(t, a.Synced())
}

func TestAssemblerStartMarkerRestartsCycle(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)
	stamp := time.Now()

	// Partial cycle, then a fresh start marker, then a full cycle. Only
	// one cloud may come out, built from the second cycle.
	a.Observe(testUnit(colaa.Layer2, testBeams), stamp)
	a.Observe(testUnit(colaa.Layer3, testBeams), stamp)
	feedCycle(a, stamp.Add(25*time.Millisecond))

	require.Len(t, pub.clouds, 1)
	assert.Equal(t, stamp.Add(25*time.Millisecond), pub.clouds[0].Stamp)
}

func TestAssemblerDiscardsIncompleteCycleAtEndMarker(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)
	stamp := time.Now()

	// Layer1 dropped mid-cycle: the end marker must not publish a cloud
	// with a hole, and sync is lost until the next start marker.
	a.Observe(testUnit(colaa.Layer2, testBeams), stamp)
	a.Observe(testUnit(colaa.Layer3, testBeams), stamp)
	a.Observe(testUnit(colaa.Layer4, testBeams), stamp)
	assert.Empty(t, pub.clouds)
	assert.False(t, a.Synced())

	feedCycle(a, stamp)
	assert.Len(t, pub.clouds, 1)
}

func TestAssemblerDesyncDropsCurrentCycle(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)
	stamp := time.Now()

	a.Observe(testUnit(colaa.Layer2, testBeams), stamp)
	a.Observe(testUnit(colaa.Layer3, testBeams), stamp)
	a.Desync()
	a.Observe(testUnit(colaa.Layer1, testBeams), stamp)
	a.Observe(testUnit(colaa.Layer4, testBeams), stamp)

	assert.Empty(t, pub.clouds)
}

func TestAssemblerMissingReturnBecomesNaN(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)
	stamp := time.Now()

	for _, layer := range []colaa.LayerAngle{colaa.Layer2, colaa.Layer3, colaa.Layer1, colaa.Layer4} {
		unit := testUnit(layer, testBeams)
		unit.DistChannels[0].Data[2] = 0 // no return for beam 2
		a.Observe(unit, stamp)
	}

	require.Len(t, pub.clouds, 1)
	cloud := pub.clouds[0]
	for slot := 0; slot < LayerCount; slot++ {
		i := slot*testBeams + 2
		assert.True(t, math.IsNaN(float64(cloud.X[i])), "slot %d", slot)
		assert.True(t, math.IsNaN(float64(cloud.Y[i])), "slot %d", slot)
		assert.True(t, math.IsNaN(float64(cloud.Z[i])), "slot %d", slot)
	}
}

func TestAssemblerCycleIDsDistinct(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)

	feedCycle(a, time.Now())
	feedCycle(a, time.Now())

	require.Len(t, pub.clouds, 2)
	assert.NotEqual(t, pub.clouds[0].CycleID, pub.clouds[1].CycleID)
}

func TestAssemblerResizesOnBeamCountChange(t *testing.T) {
	pub := newMemoryPublisher()
	a := NewCloudAssembler("laser", pub)

	feedCycle(a, time.Now())
	require.Len(t, pub.clouds, 1)
	assert.Equal(t, testBeams, pub.clouds[0].Width)

	for _, layer := range []colaa.LayerAngle{colaa.Layer2, colaa.Layer3, colaa.Layer1, colaa.Layer4} {
		a.Observe(testUnit(layer, testBeams*2), time.Now())
	}
	require.Len(t, pub.clouds, 2)
	assert.Equal(t, testBeams*2, pub.clouds[1].Width)
}
