package mrs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaStartsInvalid(t *testing.T) {
	a := NewCloudArena(4)
	x, y, z, intensity := a.Snapshot()
	require.Len(t, x, 4*LayerCount)
	for i := range x {
		assert.True(t, math.IsNaN(float64(x[i])), "x[%d]", i)
		assert.True(t, math.IsNaN(float64(y[i])), "y[%d]", i)
		assert.True(t, math.IsNaN(float64(z[i])), "z[%d]", i)
		assert.Zero(t, intensity[i], "intensity[%d]", i)
	}
	assert.False(t, a.Complete())
}

func TestArenaOffsets(t *testing.T) {
	a := NewCloudArena(10)
	for slot := Slot(0); slot < LayerCount; slot++ {
		assert.Equal(t, int(slot)*10, a.Offset(slot))
	}
}

func TestArenaWriteAndComplete(t *testing.T) {
	const beams = 3
	a := NewCloudArena(beams)

	for slot := Slot(0); slot < LayerCount; slot++ {
		assert.False(t, a.Complete())
		for i := 0; i < beams; i++ {
			a.WriteSample(slot, float32(slot), float32(i), 0, 1)
		}
		assert.Equal(t, beams, a.WrittenSamples(slot))
	}
	assert.True(t, a.Complete())

	x, y, _, intensity := a.Snapshot()
	// Slot 2's region starts at offset 2*beams.
	assert.Equal(t, float32(2), x[2*beams])
	assert.Equal(t, float32(1), y[2*beams+1])
	assert.Equal(t, float32(1), intensity[0])
}

func TestArenaDropsOverflow(t *testing.T) {
	a := NewCloudArena(2)
	for i := 0; i < 5; i++ {
		a.WriteSample(0, 1, 1, 1, 1)
	}
	assert.Equal(t, 2, a.WrittenSamples(0))

	// The neighboring region must be untouched.
	x, _, _, _ := a.Snapshot()
	assert.True(t, math.IsNaN(float64(x[a.Offset(1)])))
}

func TestArenaResetInvalidatesPreviousCycle(t *testing.T) {
	a := NewCloudArena(2)
	for slot := Slot(0); slot < LayerCount; slot++ {
		a.WriteSample(slot, 1, 2, 3, 4)
		a.WriteSample(slot, 1, 2, 3, 4)
	}
	require.True(t, a.Complete())

	a.Reset()
	assert.False(t, a.Complete())
	x, _, _, intensity := a.Snapshot()
	for i := range x {
		assert.True(t, math.IsNaN(float64(x[i])), "x[%d] survived reset", i)
		assert.Zero(t, intensity[i])
	}
	for slot := Slot(0); slot < LayerCount; slot++ {
		assert.Zero(t, a.WrittenSamples(slot))
	}
}

func TestArenaSnapshotIsACopy(t *testing.T) {
	a := NewCloudArena(2)
	a.WriteSample(0, 7, 7, 7, 7)
	x, _, _, _ := a.Snapshot()

	a.Reset()
	a.WriteSample(0, 9, 9, 9, 9)

	assert.Equal(t, float32(7), x[0])
}
