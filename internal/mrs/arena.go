package mrs

import "math"

// CloudArena is the reusable aggregate point buffer: LayerCount*BeamCount
// points stored channel-major (x, y, z, intensity), with each layer
// occupying a fixed disjoint region keyed by its canonical slot. The
// arena is allocated once and reused across cycles; Reset invalidates
// the previous cycle's contents so stale samples from a dropped layer
// can never leak into the next published cloud.
type CloudArena struct {
	beams     int
	x         []float32
	y         []float32
	z         []float32
	intensity []float32
	written   [LayerCount]int // samples written per slot this cycle
}

// NewCloudArena allocates an arena for LayerCount layers of the given
// beam count.
func NewCloudArena(beams int) *CloudArena {
	n := LayerCount * beams
	a := &CloudArena{
		beams:     beams,
		x:         make([]float32, n),
		y:         make([]float32, n),
		z:         make([]float32, n),
		intensity: make([]float32, n),
	}
	a.Reset()
	return a
}

// Beams returns the per-layer sample capacity.
func (a *CloudArena) Beams() int { return a.beams }

// Offset returns the start index of a slot's region in each channel.
func (a *CloudArena) Offset(slot Slot) int { return int(slot) * a.beams }

// Reset begins a new cycle: all regions are marked unwritten and the
// point channels are invalidated (NaN coordinates, zero intensity).
func (a *CloudArena) Reset() {
	nan := float32(math.NaN())
	for i := range a.x {
		a.x[i] = nan
		a.y[i] = nan
		a.z[i] = nan
		a.intensity[i] = 0
	}
	for slot := range a.written {
		a.written[slot] = 0
	}
}

// WriteSample stores one point into a slot's region. Writes beyond the
// region capacity are dropped.
func (a *CloudArena) WriteSample(slot Slot, x, y, z, intensity float32) {
	n := a.written[slot]
	if n >= a.beams {
		return
	}
	i := a.Offset(slot) + n
	a.x[i] = x
	a.y[i] = y
	a.z[i] = z
	a.intensity[i] = intensity
	a.written[slot] = n + 1
}

// WrittenSamples returns how many samples a slot received this cycle.
func (a *CloudArena) WrittenSamples(slot Slot) int { return a.written[slot] }

// Complete reports whether every layer region was fully overwritten this
// cycle. Only a complete arena is safe to publish.
func (a *CloudArena) Complete() bool {
	for _, n := range a.written {
		if n != a.beams {
			return false
		}
	}
	return true
}

// Snapshot copies the four channels into fresh slices so the arena can be
// reused for the next cycle while the published cloud stays immutable.
func (a *CloudArena) Snapshot() (x, y, z, intensity []float32) {
	x = append([]float32(nil), a.x...)
	y = append([]float32(nil), a.y...)
	z = append([]float32(nil), a.z...)
	intensity = append([]float32(nil), a.intensity...)
	return x, y, z, intensity
}
