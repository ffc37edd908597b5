package mrs

import (
	"sync"
	"time"

	"github.com/banshee-data/mrs1000/internal/colaa"
	"github.com/banshee-data/mrs1000/internal/monitoring"
	"github.com/banshee-data/mrs1000/internal/units"
)

// Slot is the canonical 0-3 output position of a scan layer, independent
// of the physical emission order.
type Slot int

// Cycle markers: the device emits Layer2 first and Layer4 last within one
// rotation, so Layer2 starts a cloud cycle and Layer4 ends it.
const (
	StartLayer = colaa.Layer2
	EndLayer   = colaa.Layer4
)

var unknownLayers sync.Map

// SlotFor maps a physical layer identifier to its canonical output slot.
// The device emits layers in the order {Layer2, Layer3, Layer1, Layer4};
// the map assigns slots in that order. Unrecognized identifiers fall back
// to slot 0 to match the device driver's historical behavior, but are
// logged once per identifier so the condition is observable.
func SlotFor(layer colaa.LayerAngle) Slot {
	switch layer {
	case colaa.Layer2:
		return 0
	case colaa.Layer3:
		return 1
	case colaa.Layer1:
		return 2
	case colaa.Layer4:
		return 3
	}
	if _, seen := unknownLayers.LoadOrStore(layer, struct{}{}); !seen {
		monitoring.Logf("mrs: unknown layer angle %d, routing to slot 0", layer)
	}
	return 0
}

// Elevation returns the layer's elevation angle in radians (the scan
// header encodes it in 1/100 degree).
func Elevation(layer colaa.LayerAngle) float64 {
	return units.DegreesToRadians(units.HundredthsToDegrees(int16(layer)))
}

// Router fans each measurement unit out to the per-layer 2D scan channel
// and the per-layer multi-echo channel. Routing is stateless, per-unit,
// and unconditional; publish failures are logged, never propagated.
type Router struct {
	frameID   string
	timing    Timing
	publisher ScanPublisher
}

// NewRouter returns a router publishing under the given coordinate frame.
func NewRouter(frameID string, publisher ScanPublisher) *Router {
	return &Router{frameID: frameID, publisher: publisher}
}

// SetTiming installs the per-scan timing fields derived on (re)connect.
func (r *Router) SetTiming(t Timing) {
	r.timing = t
}

// Route builds and publishes the 2D scan and the multi-echo scan for one
// measurement unit on the output channel selected by the unit's layer.
func (r *Router) Route(unit *colaa.ScanData, stamp time.Time) {
	slot := SlotFor(unit.Header.LayerAngle)

	scan := r.buildLaserScan(unit, stamp)
	if err := r.publisher.PublishScan(slot, scan); err != nil {
		monitoring.Logf("mrs: publish scan slot %d: %v", slot, err)
	}

	multi := r.buildMultiEchoScan(unit, stamp)
	if err := r.publisher.PublishMultiEcho(slot, multi); err != nil {
		monitoring.Logf("mrs: publish multi-echo scan slot %d: %v", slot, err)
	}
}

func (r *Router) scanGeometry(unit *colaa.ScanData) (angleMin, angleMax, angleInc float64, beams int) {
	beams = BeamCount
	angleInc = units.DegreesToRadians(0.25)
	angleMin = units.DegreesToRadians(-137.5)
	if len(unit.DistChannels) > 0 {
		ch := unit.DistChannels[0]
		if len(ch.Data) > 0 {
			beams = len(ch.Data)
		}
		angleMin = units.DegreesToRadians(units.TicksToDegrees(ch.StartAngle))
		angleInc = units.DegreesToRadians(units.TicksToDegrees(int32(ch.AngularStep)))
	}
	angleMax = angleMin + float64(beams-1)*angleInc
	return angleMin, angleMax, angleInc, beams
}

func (r *Router) buildLaserScan(unit *colaa.ScanData, stamp time.Time) *LaserScan {
	angleMin, angleMax, angleInc, beams := r.scanGeometry(unit)
	scan := &LaserScan{
		FrameID:        r.frameID,
		Stamp:          stamp,
		AngleMin:       angleMin,
		AngleMax:       angleMax,
		AngleIncrement: angleInc,
		ScanTime:       r.timing.ScanTime,
		TimeIncrement:  r.timing.TimeIncrement,
		RangeMin:       RangeMin,
		RangeMax:       RangeMax,
		Ranges:         make([]float32, beams),
		Intensities:    make([]float32, beams),
	}
	if len(unit.DistChannels) > 0 {
		fillRanges(scan.Ranges, unit.DistChannels[0])
	}
	if len(unit.RSSIChannels) > 0 {
		fillIntensities(scan.Intensities, unit.RSSIChannels[0])
	}
	return scan
}

func (r *Router) buildMultiEchoScan(unit *colaa.ScanData, stamp time.Time) *MultiEchoLaserScan {
	angleMin, angleMax, angleInc, beams := r.scanGeometry(unit)
	multi := &MultiEchoLaserScan{
		FrameID:        r.frameID,
		Stamp:          stamp,
		AngleMin:       angleMin,
		AngleMax:       angleMax,
		AngleIncrement: angleInc,
		ScanTime:       r.timing.ScanTime,
		TimeIncrement:  r.timing.TimeIncrement,
		RangeMin:       RangeMin,
		RangeMax:       RangeMax,
		Ranges:         make([]EchoChannel, EchoCount),
		Intensities:    make([]EchoChannel, EchoCount),
	}
	for i := 0; i < EchoCount; i++ {
		multi.Ranges[i].Echoes = make([]float32, beams)
		multi.Intensities[i].Echoes = make([]float32, beams)
		if i < len(unit.DistChannels) {
			fillRanges(multi.Ranges[i].Echoes, unit.DistChannels[i])
		}
		if i < len(unit.RSSIChannels) {
			fillIntensities(multi.Intensities[i].Echoes, unit.RSSIChannels[i])
		}
	}
	return multi
}

// fillRanges converts raw distance samples (millimeters after scaling)
// into meters. A raw value of zero means no return and stays zero.
func fillRanges(dst []float32, ch colaa.ChannelData) {
	n := len(ch.Data)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = float32((float64(ch.Data[i])*ch.ScaleFactor + ch.ScaleOffset) / 1000.0)
	}
}

func fillIntensities(dst []float32, ch colaa.ChannelData) {
	n := len(ch.Data)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(float64(ch.Data[i])*ch.ScaleFactor + ch.ScaleOffset)
	}
}
