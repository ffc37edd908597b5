package mrs

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/mrs1000/internal/colaa"
	"github.com/banshee-data/mrs1000/internal/monitoring"
	"github.com/banshee-data/mrs1000/internal/units"
)

// CloudAssembler accumulates the four per-layer sweeps of one rotation
// cycle into a CloudArena and publishes the aggregate cloud when the
// cycle completes. A cycle begins when the start-of-cycle layer arrives
// and ends with the end-of-cycle layer; units seen before the first start
// marker are discarded so the first published cloud is always a complete
// four-layer cycle.
type CloudAssembler struct {
	frameID   string
	arena     *CloudArena
	publisher CloudPublisher

	synced     bool
	cycleStart time.Time
	cycleID    string
}

// NewCloudAssembler returns an unsynced assembler with a freshly
// allocated arena.
func NewCloudAssembler(frameID string, publisher CloudPublisher) *CloudAssembler {
	return &CloudAssembler{
		frameID:   frameID,
		arena:     NewCloudArena(BeamCount),
		publisher: publisher,
	}
}

// Desync drops cycle synchronization. Called whenever the session
// (re)enters streaming so a partial pre-reconnect cycle is never
// completed by post-reconnect data.
func (a *CloudAssembler) Desync() {
	a.synced = false
}

// Synced reports whether a start-of-cycle marker has been observed since
// the last Desync.
func (a *CloudAssembler) Synced() bool { return a.synced }

// Observe feeds one measurement unit into the current cycle. A start
// marker unconditionally begins a new cycle, discarding any accumulated
// partial cycle without emitting it. An end marker flushes the cycle to
// the cloud publisher if every layer region was fully overwritten.
func (a *CloudAssembler) Observe(unit *colaa.ScanData, stamp time.Time) {
	layer := unit.Header.LayerAngle

	if layer == StartLayer {
		// The device reports its beam count per telegram; resize the arena
		// if the configured range changed since the last connection.
		if b := beamsOf(unit); b > 0 && b != a.arena.Beams() {
			a.arena = NewCloudArena(b)
		} else {
			a.arena.Reset()
		}
		a.cycleStart = stamp
		a.cycleID = uuid.NewString()
		a.synced = true
	}
	if !a.synced {
		return
	}

	a.writeLayer(unit)

	if layer == EndLayer {
		a.flush()
	}
}

// beamsOf returns the unit's first-echo sample count, or zero when the
// unit carries no distance channel.
func beamsOf(unit *colaa.ScanData) int {
	if len(unit.DistChannels) == 0 {
		return 0
	}
	return len(unit.DistChannels[0].Data)
}

// writeLayer projects the unit's first-echo samples into cartesian points
// inside the layer's arena region.
func (a *CloudAssembler) writeLayer(unit *colaa.ScanData) {
	if len(unit.DistChannels) == 0 {
		return
	}
	slot := SlotFor(unit.Header.LayerAngle)
	elevation := Elevation(unit.Header.LayerAngle)
	cosEl := math.Cos(elevation)
	sinEl := math.Sin(elevation)

	dist := unit.DistChannels[0]
	var rssi []uint16
	var rssiScale, rssiOffset float64
	if len(unit.RSSIChannels) > 0 {
		rssi = unit.RSSIChannels[0].Data
		rssiScale = unit.RSSIChannels[0].ScaleFactor
		rssiOffset = unit.RSSIChannels[0].ScaleOffset
	}

	startAngle := units.TicksToDegrees(dist.StartAngle)
	step := units.TicksToDegrees(int32(dist.AngularStep))
	nan := float32(math.NaN())

	for i, raw := range dist.Data {
		var intensity float32
		if i < len(rssi) {
			intensity = float32(float64(rssi[i])*rssiScale + rssiOffset)
		}
		if raw == 0 {
			// No return for this beam; keep the point invalid.
			a.arena.WriteSample(slot, nan, nan, nan, intensity)
			continue
		}
		r := (float64(raw)*dist.ScaleFactor + dist.ScaleOffset) / 1000.0
		azimuth := units.DegreesToRadians(startAngle + float64(i)*step)
		p := r3.Scale(r, r3.Vec{
			X: cosEl * math.Cos(azimuth),
			Y: cosEl * math.Sin(azimuth),
			Z: sinEl,
		})
		a.arena.WriteSample(slot, float32(p.X), float32(p.Y), float32(p.Z), intensity)
	}
}

// flush publishes the completed cycle, stamped with the cycle's start
// time. An incomplete arena (a layer dropped mid-cycle) is discarded
// rather than published with holes.
func (a *CloudAssembler) flush() {
	if !a.arena.Complete() {
		monitoring.Logf("mrs: discarding incomplete cloud cycle %s (written %v)", a.cycleID, a.arena.written)
		a.synced = false
		return
	}

	x, y, z, intensity := a.arena.Snapshot()
	cloud := &PointCloud{
		FrameID:   a.frameID,
		Stamp:     a.cycleStart,
		CycleID:   a.cycleID,
		Height:    LayerCount,
		Width:     a.arena.Beams(),
		Fields:    CloudFields,
		BigEndian: false,
		Dense:     false,
		X:         x,
		Y:         y,
		Z:         z,
		Intensity: intensity,
	}
	if err := a.publisher.PublishCloud(cloud); err != nil {
		monitoring.Logf("mrs: publish cloud cycle %s: %v", a.cycleID, err)
	}
}
